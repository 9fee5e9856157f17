package dbx

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
)

// ValuesScan - RowScan over values already read from the driver.
type ValuesScan struct {
	Values []any
}

// Scan implements the RowScan interface to scan Values into the provided dest.
func (p *ValuesScan) Scan(dest ...any) error {
	if len(dest) != len(p.Values) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(p.Values), len(dest))
	}
	for i, v := range p.Values {
		destValue := reflect.ValueOf(dest[i])

		if destValue.Kind() != reflect.Ptr || destValue.IsNil() {
			return errorx.NewDatabaseError("destination %d not a pointer", i)
		}
		// destElem is the value destValue points to
		destElem := destValue.Elem()

		if v == nil {
			destElem.Set(reflect.Zero(destElem.Type()))
			continue
		}

		val := reflect.ValueOf(v)

		// JSON/JSONB columns come back decoded, hand them over as raw bytes when asked to
		if destElem.Kind() == reflect.Slice && destElem.Type().Elem().Kind() == reflect.Uint8 {
			switch v.(type) {
			case map[string]any, []any:
				jsonBytes, err := json.Marshal(v)
				if err != nil {
					return errorx.NewDatabaseErrorWrapper(err, "failed to marshal jsonb data")
				}
				destElem.Set(reflect.ValueOf(jsonBytes))
				continue
			}
		}

		if destElem.Kind() == reflect.Interface {
			destElem.Set(val)
			continue
		}

		if destElem.Kind() == reflect.Ptr {
			// destElem is e.g. *int, newElem is a fresh *int
			newElem := reflect.New(destElem.Type().Elem())
			if !val.Type().ConvertibleTo(newElem.Elem().Type()) {
				return errorx.NewDatabaseError("cannot convert %v to %v", val.Type(), newElem.Elem().Type())
			}
			newElem.Elem().Set(val.Convert(newElem.Elem().Type()))
			destElem.Set(newElem)
		} else if val.Type().ConvertibleTo(destElem.Type()) {
			destElem.Set(val.Convert(destElem.Type()))
		} else {
			return errorx.NewDatabaseError("cannot convert %v to %v", val.Type(), destElem.Type())
		}
	}

	return nil
}
