package tools

import "encoding/json"

// MimeJSON is the MIME type of every resource this server returns.
const MimeJSON = "application/json"

// toAny round-trips v through JSON. Output fields that carry arbitrary JSON
// are typed any so the inferred schema accepts them.
func toAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
