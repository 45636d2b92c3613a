package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/model"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"github.com/chirino/docsync/internal/security"
	"github.com/google/uuid"
)

// SyncReport summarizes one build sync by entry id.
type SyncReport struct {
	RunID     string        `json:"runId"`
	Skipped   bool          `json:"skipped,omitempty"`
	Entries   int           `json:"entries"`
	Added     []string      `json:"added"`
	Changed   []string      `json:"changed"`
	Unchanged []string      `json:"unchanged"`
	Removed   []string      `json:"removed"`
	Duration  time.Duration `json:"duration"`
}

// Digest is the hex sha256 of a normalized body.
func Digest(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// BuildSync replaces the content of an entry store with a fresh ingestion.
type BuildSync struct {
	pipeline *Pipeline
	store    registrystore.EntryStore
	now      func() time.Time
}

// NewBuildSync returns a BuildSync writing into store.
func NewBuildSync(pipeline *Pipeline, store registrystore.EntryStore) *BuildSync {
	return &BuildSync{pipeline: pipeline, store: store, now: time.Now}
}

// Run clears the store and repopulates it. Without credentials it logs and
// leaves the store untouched. A failed ingestion leaves the store cleared.
func (b *BuildSync) Run(ctx context.Context) (report *SyncReport, err error) {
	start := b.now()
	report = &SyncReport{RunID: uuid.NewString()}
	defer func() {
		if report != nil {
			report.Duration = b.now().Sub(start)
		}
		if report == nil || !report.Skipped {
			security.RecordSyncRun("build", start, reportEntries(report), err)
		}
	}()

	if !b.pipeline.Configured() {
		log.Warn("Missing remote configuration, skipping build sync")
		report.Skipped = true
		return report, nil
	}

	previous, err := b.store.Digests(ctx)
	if err != nil {
		return nil, fmt.Errorf("build sync: read digests: %w", err)
	}
	if err := b.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("build sync: clear store: %w", err)
	}

	entries, err := b.pipeline.Collect(ctx)
	if errors.Is(err, config.ErrMissingCredentials) {
		report.Skipped = true
		return report, nil
	}
	if err != nil {
		log.Error("Build sync failed", "run", report.RunID, "err", err)
		return nil, fmt.Errorf("build sync: %w", err)
	}

	syncedAt := b.now().UTC()
	rows := make([]model.StoredEntry, 0, len(entries))
	current := make(map[string]string, len(entries))
	for _, e := range entries {
		digest := Digest(e.Body)
		rows = append(rows, model.NewStoredEntry(e, digest, syncedAt))
		current[e.ID] = digest
	}
	if err := b.store.Upsert(ctx, rows); err != nil {
		return nil, fmt.Errorf("build sync: write entries: %w", err)
	}

	for id, digest := range current {
		old, existed := previous[id]
		switch {
		case !existed:
			report.Added = append(report.Added, id)
		case old != digest:
			report.Changed = append(report.Changed, id)
		default:
			report.Unchanged = append(report.Unchanged, id)
		}
	}
	for id := range previous {
		if _, ok := current[id]; !ok {
			report.Removed = append(report.Removed, id)
		}
	}
	sort.Strings(report.Added)
	sort.Strings(report.Changed)
	sort.Strings(report.Unchanged)
	sort.Strings(report.Removed)
	report.Entries = len(current)

	log.Info("Build sync complete",
		"run", report.RunID,
		"entries", report.Entries,
		"added", len(report.Added),
		"changed", len(report.Changed),
		"unchanged", len(report.Unchanged),
		"removed", len(report.Removed),
	)
	return report, nil
}

func reportEntries(r *SyncReport) int {
	if r == nil {
		return 0
	}
	return r.Entries
}
