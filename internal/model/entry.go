package model

import "time"

// UnorderedSortOrder is assigned to entries whose document is absent from the
// table of contents. It is larger than any realistic TOC index.
const UnorderedSortOrder = 999999

// EntryMetadata is the front matter of a ContentEntry.
type EntryMetadata struct {
	Title       string     `json:"title"`
	Date        *time.Time `json:"date,omitempty"`
	Updated     *time.Time `json:"updated,omitempty"`
	Description string     `json:"description,omitempty"`
	SortOrder   int        `json:"sort"`
	Locked      bool       `json:"locked"`
}

// ContentEntry is the externally visible unit produced by ingestion.
// ID is the resolved hierarchical path and doubles as the route and the
// navigation tree leaf key.
type ContentEntry struct {
	ID       string        `json:"id"`
	Body     string        `json:"body"`
	Metadata EntryMetadata `json:"data"`
}

// StoredEntry is a ContentEntry persisted by a build sync, with its digest.
type StoredEntry struct {
	ID          string     `json:"id"                    gorm:"primaryKey"          bson:"_id"`
	Body        string     `json:"body"                  gorm:"type:text;not null"  bson:"body"`
	Digest      string     `json:"digest"                gorm:"not null"            bson:"digest"`
	Title       string     `json:"title"                 gorm:"not null"            bson:"title"`
	Description string     `json:"description,omitempty"                            bson:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"                                   bson:"date,omitempty"`
	Updated     *time.Time `json:"updated,omitempty"                                bson:"updated,omitempty"`
	SortOrder   int        `json:"sort"                  gorm:"not null;index"      bson:"sort"`
	Locked      bool       `json:"locked"                gorm:"not null"            bson:"locked"`
	SyncedAt    time.Time  `json:"syncedAt"              gorm:"not null"            bson:"synced_at"`
}

func (StoredEntry) TableName() string { return "entries" }

// NewStoredEntry wraps a ContentEntry with its digest.
func NewStoredEntry(e ContentEntry, digest string, syncedAt time.Time) StoredEntry {
	return StoredEntry{
		ID:          e.ID,
		Body:        e.Body,
		Digest:      digest,
		Title:       e.Metadata.Title,
		Description: e.Metadata.Description,
		Date:        e.Metadata.Date,
		Updated:     e.Metadata.Updated,
		SortOrder:   e.Metadata.SortOrder,
		Locked:      e.Metadata.Locked,
		SyncedAt:    syncedAt,
	}
}

// ContentEntry converts a stored row back to the consumer shape.
func (s StoredEntry) ContentEntry() ContentEntry {
	return ContentEntry{
		ID:   s.ID,
		Body: s.Body,
		Metadata: EntryMetadata{
			Title:       s.Title,
			Date:        s.Date,
			Updated:     s.Updated,
			Description: s.Description,
			SortOrder:   s.SortOrder,
			Locked:      s.Locked,
		},
	}
}
