// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/util"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("conversation has no messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the exportable view of one session.
type Transcript struct {
	SessionID string          `json:"session_id"`
	StartTime time.Time       `json:"start_time"`
	Endpoint  string          `json:"endpoint"`
	Model     string          `json:"model"`
	Messages  []model.Message `json:"messages"`
}

// FromSnapshot builds a transcript from a session snapshot.
func FromSnapshot(snap session.Snapshot) *Transcript {
	return &Transcript{
		SessionID: snap.ID,
		StartTime: snap.StartTime,
		Endpoint:  snap.Conn.Endpoint,
		Model:     snap.Conn.Selected,
		Messages:  snap.History,
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(tr *Transcript) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is used when no explicit path is given.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata adds a header with session, endpoint and model.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// ForPath picks the exporter by file extension. Anything but .json is
// written as Markdown.
func ForPath(path string, opts *Options) Exporter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONExporter()
	}
	return NewMarkdownExporter(opts)
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile writes tr to path, or to a timestamped file in opts.OutputDir when
// path is empty. Returns the path written.
func ToFile(tr *Transcript, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if tr == nil || len(tr.Messages) == 0 {
		return "", ErrEmpty
	}

	exporter := ForPath(path, opts)
	if path == "" {
		name := "rigchat_" + time.Now().Format("20060102_150405") + exporter.FileExtension()
		path = filepath.Join(opts.OutputDir, name)
	}

	content, err := exporter.Export(tr)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
