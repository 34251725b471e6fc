package omnibox

import "strings"

// TermKind classifies a parsed input token.
type TermKind int

const (
	TermPlain TermKind = iota
	TermTag
	TermList
)

func (k TermKind) String() string {
	switch k {
	case TermTag:
		return "tag"
	case TermList:
		return "list"
	default:
		return "plain"
	}
}

const (
	tagSigil  = '#'
	listSigil = '@'
)

// Term is one classified unit of input.
type Term struct {
	Kind  TermKind
	Value string
}

func (t Term) String() string {
	switch t.Kind {
	case TermTag:
		return string(tagSigil) + t.Value
	case TermList:
		return string(listSigil) + t.Value
	default:
		return t.Value
	}
}

// ParseTerms splits text on whitespace and classifies each token by its
// leading sigil. A sigil with nothing after it is a plain term.
func ParseTerms(text string) []Term {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]Term, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, classify(tok))
	}
	return terms
}

func classify(tok string) Term {
	if len(tok) > 1 {
		switch tok[0] {
		case tagSigil:
			return Term{Kind: TermTag, Value: tok[1:]}
		case listSigil:
			return Term{Kind: TermList, Value: tok[1:]}
		}
	}
	return Term{Kind: TermPlain, Value: tok}
}
