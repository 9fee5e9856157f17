package dbx

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// taggedFields returns the exported fields of t carrying a usable tagKey tag, in declaration order.
func taggedFields(t reflect.Type, tagKey string) ([]reflect.StructField, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("expected a struct type, got %s", t.Kind())
	}

	var fields []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := field.Tag.Get(tagKey)
		if tag == "" || tag == "-" || field.PkgPath != "" {
			continue
		}

		fields = append(fields, field)
	}

	return fields, nil
}

// ColumnNames extracts the column names declared by the tagKey tags of a struct.
// Unexported fields and fields tagged "-" are skipped.
//
// Example:
//
//	type User struct {
//	    ID   int    `db:"id"`
//	    Name string `db:"name"`
//	}
//	columns, _ := ColumnNames(User{}, "db")
//	// columns would be: []string{"id", "name"}
func ColumnNames[T any](entity T, tagKey string) ([]string, error) {
	fields, err := taggedFields(reflect.TypeOf(entity), tagKey)
	if err != nil {
		return nil, err
	}

	columnNames := make([]string, 0, len(fields))
	for _, field := range fields {
		columnNames = append(columnNames, field.Tag.Get(tagKey))
	}

	return columnNames, nil
}

// StructArgs returns the tagged field values of entity in ColumnNames order,
// ready to be passed as positional query arguments.
func StructArgs[T any](entity T, tagKey string) ([]any, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, errors.New("nil entity")
		}
		v = v.Elem()
	}

	fields, err := taggedFields(v.Type(), tagKey)
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, v.FieldByIndex(field.Index).Interface())
	}

	return args, nil
}

// InsertSQL builds "INSERT INTO table (c1, c2) VALUES ($1, $2)" for the given columns.
func InsertSQL(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// MapRows converts every row of rs into a T, matching result columns to the
// tagKey tags of T. Columns without a matching field are ignored.
func MapRows[T any](rs *ResultSet, tagKey string) ([]T, error) {
	var zero T

	rowType := reflect.TypeOf(zero)
	if rowType == nil || rowType.Kind() != reflect.Struct {
		return nil, errors.New("MapRows expects a struct type")
	}

	fields, err := taggedFields(rowType, tagKey)
	if err != nil {
		return nil, err
	}

	byColumn := make(map[string]reflect.StructField, len(fields))
	for _, field := range fields {
		byColumn[field.Tag.Get(tagKey)] = field
	}

	out := make([]T, 0, rs.Len())
	for rowIdx, row := range rs.GetRows() {
		var item T
		target := reflect.ValueOf(&item).Elem()

		for colIdx, column := range rs.Columns {
			field, ok := byColumn[column]
			if !ok || colIdx >= len(row) {
				continue
			}

			scan := ValuesScan{Values: []any{row[colIdx]}}
			if err := scan.Scan(target.FieldByIndex(field.Index).Addr().Interface()); err != nil {
				return nil, errors.Wrapf(err, "row %d, column %s", rowIdx, column)
			}
		}

		out = append(out, item)
	}

	return out, nil
}
