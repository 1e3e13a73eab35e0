package query

import (
	"net/http"
	"net/url"
	"regexp"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// bracketPattern matches query parameters like fields[typename] or page[limit]
var bracketPattern = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]+)\]$`)

// FromValues converts decoded query values into JSON:API request
// parameters. Plain keys such as include=author become Param.Value and
// bracketed keys such as fields[people]=name become entries of Param.Sub.
// Only the first value of a repeated key is used.
//
// Example: ?include=author&fields[people]=name,email&page[limit]=10
// Returns: {"include": {Value: "author"}, "fields": {Sub: {"people": "name,email"}}, "page": {Sub: {"limit": "10"}}}
func FromValues(values url.Values) jsonapi.Params {
	params := make(jsonapi.Params, len(values))

	for key, vals := range values {
		value := ""
		if len(vals) > 0 {
			value = vals[0]
		}

		if matches := bracketPattern.FindStringSubmatch(key); len(matches) == 3 {
			name, sub := matches[1], matches[2]
			param := params[name]
			if param.Sub == nil {
				param.Sub = make(map[string]string)
			}
			param.Sub[sub] = value
			params[name] = param
			continue
		}

		param := params[key]
		param.Value = value
		params[key] = param
	}

	return params
}

// FromRequest extracts the JSON:API parameters of a request URL.
func FromRequest(r *http.Request) jsonapi.Params {
	return FromValues(r.URL.Query())
}

// Parse builds the query of a request. Malformed include or fields
// parameters are bad requests.
func Parse(api *jsonapi.API, r *http.Request) (*jsonapi.Query, error) {
	return api.CreateQuery(FromRequest(r))
}
