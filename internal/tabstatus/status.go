// Package tabstatus decides whether the active tab is already bookmarked and
// reflects the answer as a toolbar badge.
package tabstatus

import (
	"fmt"
	"strings"
)

// Kind is the outcome of a tab status resolution.
type Kind int

const (
	KindLoading Kind = iota
	KindPresent
	KindAbsent
	KindError
	// KindNotApplicable covers empty URLs and browser-internal pages.
	KindNotApplicable
	// KindUnconfigured means no API location or token is set.
	KindUnconfigured
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindPresent:
		return "present"
	case KindAbsent:
		return "absent"
	case KindError:
		return "error"
	case KindNotApplicable:
		return "not_applicable"
	case KindUnconfigured:
		return "unconfigured"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Persisted sentinels. Valid link ids are positive.
const (
	SentinelAbsent = -1
	SentinelError  = -2
)

// StatusKeyPrefix prefixes the per-tab persisted status key.
const StatusKeyPrefix = "linkacePageStatus"

// StatusKey returns the persisted status key for a tab.
func StatusKey(tabID int) string {
	return fmt.Sprintf("%s:%d", StatusKeyPrefix, tabID)
}

// Badge is the glyph and background color shown on the toolbar icon.
// An empty Text clears the badge.
type Badge struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

var (
	BadgeLoading = Badge{Text: "o", Color: "#f2ce2b"}
	BadgePresent = Badge{Text: "✓", Color: "#41b349"}
	BadgeError   = Badge{Text: "!", Color: "#a61b29"}
	BadgeClear   = Badge{}
)

// Status is a resolved tab state.
type Status struct {
	Kind   Kind
	LinkID int
	Err    error
}

// Badge returns the badge for the status.
func (s Status) Badge() Badge {
	switch s.Kind {
	case KindLoading:
		return BadgeLoading
	case KindPresent:
		return BadgePresent
	case KindError:
		return BadgeError
	default:
		return BadgeClear
	}
}

// Persisted returns the value stored for the tab, and false when nothing
// should be stored.
func (s Status) Persisted() (int, bool) {
	switch s.Kind {
	case KindPresent:
		return s.LinkID, true
	case KindAbsent:
		return SentinelAbsent, true
	case KindError:
		return SentinelError, true
	default:
		return 0, false
	}
}

func (s Status) String() string {
	if s.Kind == KindPresent {
		return fmt.Sprintf("present(%d)", s.LinkID)
	}
	return s.Kind.String()
}

// privilegedSchemes are pages an extension cannot bookmark or inspect.
var privilegedSchemes = []string{
	"chrome:",
	"chrome-extension:",
	"chrome-search:",
	"moz-extension:",
	"about:",
	"edge:",
	"brave:",
	"opera:",
	"vivaldi:",
	"view-source:",
	"devtools:",
}

// Applicable reports whether a tab URL can be looked up.
func Applicable(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, scheme := range privilegedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}

// NormalizeURL strips a single trailing slash. A run of trailing slashes is
// left alone so that normalizing twice equals normalizing once.
func NormalizeURL(rawURL string) string {
	if !strings.HasSuffix(rawURL, "/") || strings.HasSuffix(rawURL, "//") {
		return rawURL
	}
	return rawURL[:len(rawURL)-1]
}
