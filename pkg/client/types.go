package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Link is a bookmarked URL. Only ID, URL and Title are interpreted; the
// complete record is kept in Raw so other fields pass through untouched.
type Link struct {
	ID    int
	URL   string
	Title string
	Raw   json.RawMessage
}

type linkFields struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// UnmarshalJSON decodes the known fields and keeps a copy of the record.
func (l *Link) UnmarshalJSON(data []byte) error {
	var f linkFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	l.ID, l.URL, l.Title = f.ID, f.URL, f.Title
	l.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the original record when available.
func (l Link) MarshalJSON() ([]byte, error) {
	if len(l.Raw) > 0 {
		return l.Raw, nil
	}
	return json.Marshal(linkFields{ID: l.ID, URL: l.URL, Title: l.Title})
}

// linkPage is the paginated envelope returned by link listing endpoints.
type linkPage struct {
	Data []Link `json:"data"`
}

// LinkInput is the body for creating or updating a link.
type LinkInput struct {
	URL           string `json:"url,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Lists         []int  `json:"lists,omitempty"`
	Tags          []int  `json:"tags,omitempty"`
	IsPrivate     *bool  `json:"is_private,omitempty"`
	CheckDisabled *bool  `json:"check_disabled,omitempty"`
}

// Tag is a LinkAce tag.
type Tag struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// List is a LinkAce list.
type List struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
}

// Match is one hit of a tag or list search.
type Match struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Matches is the result of a tag or list search. The API returns an object
// keyed by id; Matches keeps the keys in the order they appear in the
// response document. That order carries no ranking guarantee; use First to
// pick a match.
type Matches []Match

// UnmarshalJSON accepts the id-keyed object form, and the empty array an
// empty result serializes to.
func (m *Matches) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case json.Delim('['):
		var list []Match
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*m = list
		return nil
	case json.Delim('{'):
	default:
		if tok == nil {
			*m = nil
			return nil
		}
		return fmt.Errorf("unexpected token %v in search matches", tok)
	}

	out := Matches{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid id %q in search matches", key)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out = append(out, Match{ID: id, Name: matchName(value)})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	*m = out
	return nil
}

// matchName reads the display name from either a bare string or an object
// carrying a name field.
func matchName(value json.RawMessage) string {
	var name string
	if json.Unmarshal(value, &name) == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(value, &obj) == nil {
		return obj.Name
	}
	return ""
}

// First returns the match with the lowest id, the one a browser sees first
// when it enumerates the id-keyed response object.
func (m Matches) First() (Match, bool) {
	if len(m) == 0 {
		return Match{}, false
	}
	first := m[0]
	for _, match := range m[1:] {
		if match.ID < first.ID {
			first = match
		}
	}
	return first, true
}

// APIError represents an error response from the LinkAce API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("linkace API error %d: %s", e.StatusCode, e.Message)
}

// errorResponse is the JSON structure for API errors.
type errorResponse struct {
	Message string `json:"message"`
}
