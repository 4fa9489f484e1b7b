package airtable

// Fields is an Airtable record's field map, keyed by human-readable column names.
type Fields map[string]any

// String returns the first non-empty string value among the given column
// names. Airtable bases drift in column naming ("Name" vs "Lead Name"), so
// callers list the synonyms they accept.
func (f Fields) String(keys ...string) string {
	for _, key := range keys {
		if v, ok := f[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// StringList returns the value under key as a string slice. Airtable linked
// record fields arrive as JSON arrays of record IDs; non-string elements are
// skipped.
func (f Fields) StringList(key string) []string {
	raw, ok := f[key].([]any)
	if !ok {
		return nil
	}

	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Number returns the value under the first matching column name as a float64.
// JSON numbers decode as float64; numeric strings are not coerced.
func (f Fields) Number(keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := f[key].(float64); ok {
			return v, true
		}
	}
	return 0, false
}

// Record is a single Airtable record as returned by the REST API.
type Record struct {
	ID          string `json:"id"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      Fields `json:"fields"`
}

// recordsResponse wraps list/create responses.
type recordsResponse struct {
	Records []Record `json:"records"`
}

// createRecordsRequest is the bulk-create request body.
type createRecordsRequest struct {
	Records []createRecord `json:"records"`
}

type createRecord struct {
	Fields Fields `json:"fields"`
}

// apiError is Airtable's error response body.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
