// Package schema validates LinkAce API responses against JSON Schemas derived
// from the shapes this module relies on.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// Shape names a response shape.
type Shape string

const (
	ShapeNone     Shape = ""
	ShapeLinkPage Shape = "link-page"
	ShapeLink     Shape = "link"
	ShapeMatches  Shape = "matches"
	ShapeNamed    Shape = "named"
)

// linkRecord holds the link fields lookups depend on. Other fields are allowed.
type linkRecord struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

type linkPage struct {
	Data []linkRecord `json:"data"`
}

type namedRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ValidationError lists the problems found in one response.
type ValidationError struct {
	Path     string
	Shape    Shape
	Problems []string
}

func (e *ValidationError) Error() string {
	return printer.Sprintf("%s response from %s has %d problem(s): %s",
		e.Shape, e.Path, len(e.Problems), strings.Join(e.Problems, "; "))
}

// ResponseValidator checks raw response bodies by request path. It
// implements client.ResponseValidator.
type ResponseValidator struct {
	schemas map[Shape]*jsonschema.Schema
}

var _ client.ResponseValidator = (*ResponseValidator)(nil)

// NewResponseValidator compiles the schemas for every known shape.
func NewResponseValidator() (*ResponseValidator, error) {
	docs := map[Shape]*invopop.Schema{
		ShapeLinkPage: reflectShape(&linkPage{}),
		ShapeLink:     reflectShape(&linkRecord{}),
		ShapeNamed:    reflectShape(&namedRecord{}),
		ShapeMatches:  matchesSchema(),
	}

	v := &ResponseValidator{schemas: make(map[Shape]*jsonschema.Schema, len(docs))}
	for shape, doc := range docs {
		compiled, err := compileSchema(string(shape)+".json", doc)
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", shape, err)
		}
		v.schemas[shape] = compiled
	}
	return v, nil
}

// reflectShape derives a schema from a Go type. Unknown properties stay
// legal so extra API fields never fail validation.
func reflectShape(v any) *invopop.Schema {
	r := &invopop.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	return r.Reflect(v)
}

// matchesSchema describes tag and list search results: an object keyed by
// numeric id, or the empty array an empty result serializes to.
func matchesSchema() *invopop.Schema {
	var zero uint64
	return &invopop.Schema{
		Version: invopop.Version,
		AnyOf: []*invopop.Schema{
			{
				Type:          "object",
				PropertyNames: &invopop.Schema{Type: "string", Pattern: "^[0-9]+$"},
			},
			{
				Type:     "array",
				MaxItems: &zero,
			},
		},
	}
}

// compileSchema converts an invopop schema into a compiled validator schema.
func compileSchema(name string, doc *invopop.Schema) (*jsonschema.Schema, error) {
	// Convert to JSON and back to get a clean map[string]any
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, value); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	return compiler.Compile(name)
}

// ShapeFor maps a request path to the shape of its response.
func ShapeFor(path string) Shape {
	switch {
	case path == client.PathSearchLinks:
		return ShapeLinkPage
	case path == client.PathSearchTags, path == client.PathSearchLists:
		return ShapeMatches
	case strings.HasSuffix(path, "/links") &&
		(strings.HasPrefix(path, client.PathTags+"/") || strings.HasPrefix(path, client.PathLists+"/")):
		return ShapeLinkPage
	case path == client.PathLinks, strings.HasPrefix(path, client.PathLinks+"/"):
		return ShapeLink
	case strings.HasPrefix(path, client.PathTags+"/"), strings.HasPrefix(path, client.PathLists+"/"):
		return ShapeNamed
	default:
		return ShapeNone
	}
}

// Validate checks body against the shape registered for path. Paths with no
// known shape are accepted.
func (v *ResponseValidator) Validate(path string, body []byte) error {
	shape := ShapeFor(path)
	compiled, ok := v.schemas[shape]
	if !ok {
		return nil
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return &ValidationError{Path: path, Shape: shape, Problems: []string{"invalid JSON: " + err.Error()}}
	}

	if err := compiled.Validate(value); err != nil {
		return &ValidationError{Path: path, Shape: shape, Problems: extractValidationErrors(err)}
	}
	return nil
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractDetailedErrors(validationErr)
	}
	return []string{err.Error()}
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens the leaf errors, sorted by instance path.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	paths := make([]string, 0, len(errorsByPath))
	for p := range errorsByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var result []string
	for _, p := range paths {
		seen := make(map[string]bool)
		for _, msg := range errorsByPath[p] {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if p != "" {
				result = append(result, fmt.Sprintf("%s: %s", p, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	if len(result) == 0 {
		result = append(result, err.Error())
	}
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref wrappers carry no information of their own
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
