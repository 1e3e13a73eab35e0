package query

import (
	"sort"
	"strconv"
)

// Placeholder renders the n-th (1-based) bind parameter of a statement.
type Placeholder func(n int) string

// Dollar renders PostgreSQL style placeholders: $1, $2, ...
func Dollar(n int) string {
	return "$" + strconv.Itoa(n)
}

// Question renders SQLite and MySQL style placeholders.
func Question(int) string {
	return "?"
}

// PlaceholderFor returns the placeholder style of a database/sql driver name.
func PlaceholderFor(driver string) Placeholder {
	switch driver {
	case "postgres", "pgx":
		return Dollar
	default:
		return Question
	}
}

// toSnakeCase converts a string from camelCase or PascalCase to snake_case.
// Only ASCII uppercase letters are converted and acronyms are not
// special-cased (HTTPServer -> h_t_t_p_server).
func toSnakeCase(s string) string {
	if s == "" {
		return s
	}

	var result []rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result = append(result, '_')
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+32)
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}

func sortKeys(keys []string) {
	sort.Strings(keys)
}
