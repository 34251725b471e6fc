// Package query runs jq expressions over the raw JSON of bookmark records.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// Options controls a query run.
type Options struct {
	Deduplicate bool
	MaxResults  int
}

// Result holds the values a query produced across a set of links.
type Result struct {
	Values     []any          `json:"values"`
	Errors     []string       `json:"errors,omitempty"`
	RawCount   int            `json:"raw_count"`
	MatchedIDs []int          `json:"matched_ids,omitempty"`
	PerLink    map[string]int `json:"per_link,omitempty"`
}

// Engine compiles and runs jq expressions.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compile parses and compiles expression.
func (e *Engine) Compile(expression string) (*gojq.Code, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compiling jq expression: %w", err)
	}
	return code, nil
}

// Links runs expression once per link, with the link's full API record as
// input. Runtime errors are collected per link instead of failing the run.
func (e *Engine) Links(links []client.Link, expression string, opts Options) (*Result, error) {
	code, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Values:  make([]any, 0),
		PerLink: make(map[string]int),
	}
	seen := make(map[string]bool)
	seenErrors := make(map[string]bool)
	matched := make(map[int]bool)

	full := func() bool {
		return opts.MaxResults > 0 && len(result.Values) >= opts.MaxResults
	}

	for _, link := range links {
		if full() {
			break
		}
		label := fmt.Sprintf("link:%d", link.ID)

		input, err := linkInput(link)
		if err != nil {
			result.addError(seenErrors, fmt.Sprintf("%s: %v", label, err))
			continue
		}

		iter := code.Run(input)
		for !full() {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				result.addError(seenErrors, formatJQError(label, err))
				continue
			}
			if v == nil {
				continue
			}

			result.RawCount++
			result.PerLink[label]++
			matched[link.ID] = true

			if opts.Deduplicate {
				key := valueKey(v)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			result.Values = append(result.Values, v)
		}
	}

	for id := range matched {
		result.MatchedIDs = append(result.MatchedIDs, id)
	}
	sort.Ints(result.MatchedIDs)
	return result, nil
}

func (r *Result) addError(seen map[string]bool, msg string) {
	if seen[msg] {
		return
	}
	seen[msg] = true
	r.Errors = append(r.Errors, msg)
}

// linkInput decodes the record gojq runs against. gojq wants plain
// map/slice/float64 values, not structs.
func linkInput(link client.Link) (any, error) {
	data, err := json.Marshal(link)
	if err != nil {
		return nil, fmt.Errorf("encoding link: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return input, nil
}

// formatJQError adds a hint to common runtime errors. gojq reports these
// as plain errors, so the hints key off the message text.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	msg := err.Error()
	var hint string
	switch {
	case strings.Contains(msg, "cannot iterate over: null"):
		hint = " (the field may be missing on this link)"
	case strings.Contains(msg, "cannot index") && strings.Contains(msg, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(msg, "object") && strings.Contains(msg, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	}
	return fmt.Sprintf("%s: %s%s", label, msg, hint)
}

func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
