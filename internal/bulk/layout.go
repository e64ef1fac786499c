package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/util"
)

const layoutTimeFormat = "2006-01-02_150405"

// Layout places a batch under bulk_<timestamp>. Work directories live on local disk below Root; artifacts
// are addressed by storage keys below Prefix.
type Layout struct {
	Root   string
	Prefix string
}

// NewLayout names the batch directory after now.
func NewLayout(root string, now time.Time) Layout {
	return Layout{Root: root, Prefix: "bulk_" + now.Format(layoutTimeFormat)}
}

// Key joins parts below the batch prefix.
func (l Layout) Key(parts ...string) string {
	return path.Join(append([]string{l.Prefix}, parts...)...)
}

// WorkDir is the local directory owned by job id.
func (l Layout) WorkDir(id string) string {
	return filepath.Join(l.Root, l.Prefix, id)
}

// Create makes the work directory of every job.
func (l Layout) Create(specs []JobSpec) error {
	for _, s := range specs {
		if err := os.MkdirAll(l.WorkDir(s.ID), 0o755); err != nil {
			return fmt.Errorf("create job dir %s: %w", s.ID, err)
		}
	}
	return nil
}

type runMetadata struct {
	Version   int                    `json:"version"`
	RunID     string                 `json:"run_id"`
	Timestamp string                 `json:"timestamp"`
	Resume    string                 `json:"resume"`
	Model     string                 `json:"model"`
	Settings  Settings               `json:"settings"`
	Jobs      map[string]runJobEntry `json:"jobs"`
}

type runJobEntry struct {
	Path        string  `json:"path"`
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	ContentHash *string `json:"content_hash"`
}

type jobMetadata struct {
	ID           string   `json:"id"`
	Name         *string  `json:"name"`
	Company      *string  `json:"company"`
	OriginalPath string   `json:"original_path"`
	Model        string   `json:"model"`
	Timestamp    string   `json:"timestamp"`
	Settings     Settings `json:"settings"`
}

// Settings is the snapshot of options recorded with a batch.
type Settings struct {
	Risk     string `json:"risk"`
	OnError  string `json:"on_error"`
	Parallel int    `json:"parallel"`
	FailFast bool   `json:"fail_fast"`
}

func writeRunMetadata(ctx context.Context, store object.Store, l Layout, meta runMetadata, specs []JobSpec) error {
	meta.Version = 1
	meta.Jobs = make(map[string]runJobEntry, len(specs))
	for _, s := range specs {
		entry := runJobEntry{Path: s.Path, Name: optional(s.Name), Company: optional(s.Company)}
		if data, err := os.ReadFile(s.Path); err == nil {
			h := util.ShortHash(data)
			entry.ContentHash = &h
		}
		meta.Jobs[s.ID] = entry
	}
	return putJSON(ctx, store, l.Key("run.json"), meta)
}

func writeJobArtifacts(ctx context.Context, store object.Store, l Layout, spec JobSpec, text string, meta jobMetadata) error {
	meta.ID = spec.ID
	meta.Name = optional(spec.Name)
	meta.Company = optional(spec.Company)
	meta.OriginalPath = spec.Path
	if err := putJSON(ctx, store, l.Key(spec.ID, "job.json"), meta); err != nil {
		return err
	}
	return putText(ctx, store, l.Key(spec.ID, "job.txt"), "text/plain; charset=utf-8", text)
}

func putJSON(ctx context.Context, store object.Store, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	data = append(data, '\n')
	if _, err := store.SaveWithKey(ctx, key, "application/json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func putText(ctx context.Context, store object.Store, key, contentType, text string) error {
	if _, err := store.SaveWithKey(ctx, key, contentType, bytes.NewReader([]byte(text))); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
