// Package history exports chat transcripts on demand. Conversations live in
// memory only; nothing here is read back into a session.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/diogo/llamavoice/internal/models"
)

// ExportFormat represents the format for exporting transcripts
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseFormat accepts "markdown", "md" or "json". Empty means markdown.
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (valid: markdown, json)", s)
}

// Extension returns the file extension for the format.
func (f ExportFormat) Extension() string {
	if f == ExportFormatJSON {
		return ".json"
	}
	return ".md"
}

const maxTitleLen = 60

// Transcript is a snapshot of a conversation.
type Transcript struct {
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	Messages  []models.Message `json:"messages"`
}

// NewTranscript snapshots msgs. The title is taken from the first user message.
func NewTranscript(msgs []models.Message, now time.Time) Transcript {
	return Transcript{
		Title:     titleFor(msgs),
		CreatedAt: now,
		Messages:  append([]models.Message(nil), msgs...),
	}
}

func titleFor(msgs []models.Message) string {
	for _, m := range msgs {
		if m.Role != models.RoleUser || m.IsBlank() {
			continue
		}
		title := strings.Join(strings.Fields(m.Content), " ")
		if utf8.RuneCountInString(title) > maxTitleLen {
			runes := []rune(title)
			title = string(runes[:maxTitleLen-3]) + "..."
		}
		return title
	}
	return models.AppName
}

// ToMarkdown renders the transcript as Markdown.
func (t Transcript) ToMarkdown() string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(t.Title)
	sb.WriteString("\n\n")

	sb.WriteString("**Created:** ")
	sb.WriteString(t.CreatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(t.Messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range t.Messages {
		sb.WriteString("## ")
		sb.WriteString(roleHeading(msg.Role))
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

func roleHeading(r models.Role) string {
	switch r {
	case models.RoleAssistant:
		return "Assistant"
	case models.RoleSystem:
		return "System"
	}
	return "You"
}

// ToJSON renders the transcript as indented JSON.
func (t Transcript) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Render encodes the transcript in format.
func (t Transcript) Render(format ExportFormat) ([]byte, error) {
	if format == ExportFormatJSON {
		return t.ToJSON()
	}
	return []byte(t.ToMarkdown()), nil
}

// Save writes the transcript to dir/<timestamp><ext> and returns the path.
func Save(dir string, t Transcript, format ExportFormat) (string, error) {
	if len(t.Messages) == 0 {
		return "", fmt.Errorf("nothing to export")
	}

	data, err := t.Render(format)
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	name := t.CreatedAt.Format("20060102-150405") + format.Extension()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}
