package nativemsg

import (
	"github.com/BrainAxe/linkace-extension-modern/internal/omnibox"
	"github.com/BrainAxe/linkace-extension-modern/internal/tabstatus"
)

// Inbound message types sent by the extension.
const (
	TypeTabUpdated   = "tabUpdated"
	TypeTabActivated = "tabActivated"
	TypeTabRemoved   = "tabRemoved"
	TypeInputChanged = "inputChanged"
	TypeInputEntered = "inputEntered"
	TypeAPIInfo      = "apiInfo"
	TypeCheckTab     = "checkTab"
	TypeTabInfo      = "tabInfo"
)

// Outbound command types sent by the host.
const (
	TypeSetBadge     = "setBadge"
	TypeSetStorage   = "setStorage"
	TypeSuggest      = "suggest"
	TypeNavigate     = "navigate"
	TypeGetTab       = "getTab"
	TypeGetActiveTab = "getActiveTab"
	TypeResponse     = "response"
)

// APIInfo is the content of an apiInfo message.
type APIInfo struct {
	APIURL   string `json:"apiUrl"`
	APIToken string `json:"apiToken"`
}

// Inbound is the union of all extension messages.
type Inbound struct {
	Type      string         `json:"type"`
	RequestID string         `json:"requestId,omitempty"`
	TabID     int            `json:"tabId,omitempty"`
	Status    string         `json:"status,omitempty"`
	Text      string         `json:"text,omitempty"`
	Content   *APIInfo       `json:"content,omitempty"`
	Tab       *tabstatus.Tab `json:"tab,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type setBadgeCommand struct {
	Type  string `json:"type"`
	TabID int    `json:"tabId"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

type setStorageCommand struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value int    `json:"value"`
}

type suggestCommand struct {
	Type        string               `json:"type"`
	Suggestions []omnibox.Suggestion `json:"suggestions"`
}

type navigateCommand struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type tabRequest struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	TabID     int    `json:"tabId,omitempty"`
}

type response struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}
