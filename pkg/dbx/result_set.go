package dbx

import (
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
)

// Row represents a database row returned as a result.
type Row []any

// RowScan represents a row that can be mapped to dest fields trough Scan function.
type RowScan interface {
	Scan(dest ...any) error
}

// ResultSet represents the query result set.
//
// Rows are copied out of the driver before the connection goes back to the pool,
// so a ResultSet stays valid after the Client that produced it is released.
type ResultSet struct {
	Columns      []string
	Rows         []Row
	RowsAffected int64
}

// NewResultSet - ResultSet constructor.
func NewResultSet(columns []string, rows []Row, rowsAffected int64) *ResultSet {
	return &ResultSet{Columns: columns, Rows: rows, RowsAffected: rowsAffected}
}

// Len - number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Rows)
}

// First returns the first row, or nil when the result set is empty.
func (r *ResultSet) First() Row {
	if r.Len() == 0 {
		return nil
	}

	return r.Rows[0]
}

// GetRow - get row by index.
func (r *ResultSet) GetRow(rowIdx int) (Row, error) {
	if rowIdx < 0 || rowIdx >= r.Len() {
		return Row{}, errorx.NewDatabaseError("Error retrieving ResultSet row, index out of range: %d", rowIdx)
	}

	return r.Rows[rowIdx], nil
}

// GetRows - return all the Row of this resultset.
func (r *ResultSet) GetRows() []Row {
	if r == nil {
		return nil
	}

	return r.Rows
}

// GetRowScan - Get row scan.
func (r *ResultSet) GetRowScan(rowIdx int) (RowScan, error) {
	row, err := r.GetRow(rowIdx)
	if err != nil {
		return nil, err
	}

	return &ValuesScan{Values: row}, nil
}

// Maps returns every row keyed by column name.
func (r *ResultSet) Maps() []map[string]any {
	if r.Len() == 0 {
		return nil
	}

	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}

	return out
}

// ScanAll maps every row of rs through scanFn.
//
// Example Usage:
//
//	users, err := dbx.ScanAll(rs, func(row dbx.RowScan) (User, error) {
//	    var u User
//	    err := row.Scan(&u.ID, &u.Name)
//	    return u, err
//	})
func ScanAll[T any](rs *ResultSet, scanFn func(row RowScan) (T, error)) ([]T, error) {
	out := make([]T, 0, rs.Len())
	for i := 0; i < rs.Len(); i++ {
		item, err := scanFn(&ValuesScan{Values: rs.Rows[i]})
		if err != nil {
			return nil, errorx.NewDatabaseErrorWrapper(err, "Error scanning row %d", i)
		}
		out = append(out, item)
	}

	return out, nil
}
