package query

import (
	"strings"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// BuildFilterClause generates a SQL WHERE clause from a filter map.
// It validates fields against a whitelist and returns parameterized query components
// using $N placeholders.
//
// Parameters:
//   - filters: Map of field names to filter values, as returned by Query.Filters
//   - tableName: Database table name to prefix columns with (MUST be trusted, not user input)
//   - validFields: Whitelist of allowed field names for filtering
//
// SECURITY NOTE: tableName MUST be a trusted value, never from user input.
// Field names are validated against validFields whitelist, and values are parameterized.
//
// Example:
//
//	filters := map[string]string{"status": "published", "author_id": "123"}
//	clause, args, err := BuildFilterClause(filters, "posts", []string{"status", "author_id"})
//	// Returns: "WHERE posts.author_id = $1 AND posts.status = $2", ["123", "published"], nil
func BuildFilterClause(filters map[string]string, tableName string, validFields []string) (string, []any, error) {
	return buildFilterClause(filters, tableName, validFields, Dollar, 1)
}

func buildFilterClause(filters map[string]string, tableName string, validFields []string, placeholder Placeholder, start int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	if err := ValidateFilterFields(filters, validFields); err != nil {
		return "", nil, err
	}

	// Sorted for deterministic output
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sortKeys(keys)

	conditions := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, field := range keys {
		conditions = append(conditions,
			tableName+"."+toSnakeCase(field)+" = "+placeholder(start+i))
		args = append(args, filters[field])
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}

// ValidateFilterFields checks if all filter fields are in the validFields whitelist.
// The returned error is a bad request on the filter parameter listing the
// invalid fields.
func ValidateFilterFields(filters map[string]string, validFields []string) error {
	if len(filters) == 0 {
		return nil
	}

	validSet := make(map[string]bool, len(validFields))
	for _, field := range validFields {
		validSet[field] = true
	}

	var invalidFields []string
	for field := range filters {
		snakeCaseField := toSnakeCase(field)
		if !validSet[snakeCaseField] {
			invalidFields = append(invalidFields, snakeCaseField)
		}
	}

	if len(invalidFields) > 0 {
		sortKeys(invalidFields)
		return jsonapi.BadRequest(jsonapi.ParameterFilter,
			"invalid filter fields: %s", strings.Join(invalidFields, ", "))
	}

	return nil
}
