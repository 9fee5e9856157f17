package dbx

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryToString renders sql with its positional arguments inlined, for logs only.
//
// Every occurrence of $n is replaced by args[n-1]. Strings are wrapped in single
// quotes as they are, without escaping, nil renders as null, anything else is
// printed verbatim. Placeholders without a matching argument are left untouched.
// The result is never meant to be executed.
//
// Example Usage:
//
//	QueryToString("SELECT * FROM t WHERE name=$1", "O'Reilly")
//	// SELECT * FROM t WHERE name='O'Reilly'
func QueryToString(sql string, args ...any) string {
	var sb strings.Builder
	sb.Grow(len(sql))

	for i := 0; i < len(sql); i++ {
		if sql[i] != '$' {
			sb.WriteByte(sql[i])
			continue
		}

		end := i + 1
		for end < len(sql) && sql[end] >= '0' && sql[end] <= '9' {
			end++
		}

		// the whole number is the index, $10 is never read as $1
		n, err := strconv.Atoi(sql[i+1 : end])
		if err != nil || n < 1 || n > len(args) {
			sb.WriteString(sql[i:end])
		} else {
			sb.WriteString(renderArg(args[n-1]))
		}

		i = end - 1
	}

	return sb.String()
}

func renderArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "null"
	case string:
		return "'" + v + "'"
	default:
		return fmt.Sprint(v)
	}
}
