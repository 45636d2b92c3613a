package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexID is an identifier the remote API may encode as a JSON number or string.
// It is always handled as its string form so that 42 and "42" compare equal.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

func (f FlexID) String() string { return string(f) }

// TocNode is one position in the remote table of contents. It references a
// document through DocID but owns no content itself.
type TocNode struct {
	UUID       string `json:"uuid"`
	Type       string `json:"type,omitempty"`
	Title      string `json:"title,omitempty"`
	Slug       string `json:"slug,omitempty"`
	URL        string `json:"url,omitempty"`
	DocID      FlexID `json:"doc_id,omitempty"`
	ParentUUID string `json:"parent_uuid,omitempty"`
}

// Visibility values of DocumentSummary.Public.
const (
	VisibilityPrivate = 0
	VisibilityPublic  = 1
)

// DocumentSummary is one row of the remote document list.
type DocumentSummary struct {
	ID          FlexID `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Public      int    `json:"public"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Published reports whether the document has ever been published.
func (d DocumentSummary) Published() bool {
	return strings.TrimSpace(d.PublishedAt) != ""
}

// Locked reports whether the document is private on the remote side.
func (d DocumentSummary) Locked() bool {
	return d.Public == VisibilityPrivate
}

// DocumentDetail is the full body of one document.
type DocumentDetail struct {
	Body      string `json:"body"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the remote API emits.
// It returns nil for empty or unparseable input.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
