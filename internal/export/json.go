// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the complete transcript as indented JSON. Export
// options do not filter it.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// jsonMessage is the exported form of one message.
type jsonMessage struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

type jsonTranscript struct {
	SessionID string        `json:"session_id"`
	StartTime string        `json:"start_time,omitempty"`
	Endpoint  string        `json:"endpoint"`
	Model     string        `json:"model"`
	Messages  []jsonMessage `json:"messages"`
}

// Export converts a transcript to JSON.
func (e *JSONExporter) Export(tr *Transcript) ([]byte, error) {
	if tr == nil || len(tr.Messages) == 0 {
		return nil, ErrEmpty
	}

	out := jsonTranscript{
		SessionID: tr.SessionID,
		Endpoint:  tr.Endpoint,
		Model:     tr.Model,
		Messages:  make([]jsonMessage, len(tr.Messages)),
	}
	if !tr.StartTime.IsZero() {
		out.StartTime = tr.StartTime.Format("2006-01-02T15:04:05Z07:00")
	}
	for i, msg := range tr.Messages {
		out.Messages[i] = jsonMessage{
			ID:        msg.ID,
			Timestamp: msg.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			Role:      string(msg.Role),
			Content:   msg.Content,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
