package query

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// BuildSortClause generates an SQL ORDER BY clause from the sort directive of
// a JSON:API query. All field names are prefixed with the table name.
// Returns empty string if sorts slice is empty.
//
// SECURITY NOTE: tableName MUST be a trusted value, never from user input.
// It is not parameterized because SQL does not support parameterized table/column names.
// Field names are validated against validFields whitelist.
//
// Example: sort=-created_at,title -> "ORDER BY posts.created_at DESC, posts.title ASC"
func BuildSortClause(sorts []jsonapi.SortField, tableName string, validFields []string) (string, error) {
	if len(sorts) == 0 {
		return "", nil
	}

	if err := ValidateSortFields(sorts, validFields); err != nil {
		return "", err
	}

	sortExpressions := make([]string, 0, len(sorts))
	for _, sort := range sorts {
		direction := sort.Direction
		if direction != jsonapi.SortDesc {
			direction = jsonapi.SortAsc
		}
		sortExpressions = append(sortExpressions,
			fmt.Sprintf("%s.%s %s", tableName, toSnakeCase(sort.Field), direction))
	}

	return "ORDER BY " + strings.Join(sortExpressions, ", "), nil
}

// ValidateSortFields checks that all sort fields exist in the validFields list.
// The returned error is a bad request on the sort parameter listing the
// invalid fields.
func ValidateSortFields(sorts []jsonapi.SortField, validFields []string) error {
	validFieldsMap := make(map[string]bool, len(validFields))
	for _, field := range validFields {
		validFieldsMap[field] = true
	}

	var invalidFields []string
	for _, sort := range sorts {
		fieldName := toSnakeCase(sort.Field)
		if !validFieldsMap[fieldName] {
			invalidFields = append(invalidFields, fieldName)
		}
	}

	if len(invalidFields) > 0 {
		return jsonapi.BadRequest(jsonapi.ParameterSort,
			"invalid sort fields: %s", strings.Join(invalidFields, ", "))
	}

	return nil
}
