package dbx

// PreparedStatement represents a statement prepared on every new connection of a pool.
//
// Fields:
//   - Name: A unique name identifying the prepared statement. Queries can run it by passing
//     the name in place of the SQL text.
//   - Query: The SQL text, with $n placeholders for arguments.
type PreparedStatement struct {
	Name  string
	Query string
}

// NewPreparedStatement creates a new prepared statement.
func NewPreparedStatement(name, query string) PreparedStatement {
	return PreparedStatement{Name: name, Query: query}
}

// GetName returns the name of the prepared statement.
func (p PreparedStatement) GetName() string {
	return p.Name
}

// GetQuery returns the query of the prepared statement.
func (p PreparedStatement) GetQuery() string {
	return p.Query
}
