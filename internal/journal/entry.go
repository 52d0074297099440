// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package journal keeps the human-readable audit trail: every captured
// memory is mirrored as a markdown file with YAML frontmatter inside a
// git repository, one directory per athlete. The database stays the
// source of truth; the journal exists for auditing and for rebuilding
// the memory table after database loss.
package journal

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is one journaled memory. The frontmatter carries everything
// needed to reconstruct the database row; the markdown body is the
// memory content.
type Entry struct {
	UUID          string    `yaml:"uuid"`
	AthleteID     string    `yaml:"athlete_id"`
	MemoryType    string    `yaml:"memory_type"`
	SourceMessage string    `yaml:"source_message,omitempty"`
	ExtractedAt   time.Time `yaml:"extracted_at"`
	Content       string    `yaml:"-"`
}

// ToMarkdown renders the entry as markdown with YAML frontmatter
func (e *Entry) ToMarkdown() (string, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")
	frontmatter, err := yaml.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	buf.Write(frontmatter)
	buf.WriteString("---\n\n")
	buf.WriteString(e.Content)
	buf.WriteString("\n")

	return buf.String(), nil
}

// ParseMarkdown parses a journal file back into an Entry
func ParseMarkdown(content string) (*Entry, error) {
	frontmatter, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("failed to split frontmatter: %w", err)
	}
	if frontmatter == "" {
		return nil, fmt.Errorf("journal entry has no frontmatter")
	}

	var entry Entry
	if err := yaml.Unmarshal([]byte(frontmatter), &entry); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	entry.Content = strings.TrimSpace(body)

	return &entry, nil
}

func splitFrontmatter(content string) (string, string, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}

	lines := strings.Split(content, "\n")
	closingIndex := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closingIndex = i
			break
		}
	}
	if closingIndex == -1 {
		return "", content, fmt.Errorf("frontmatter not properly closed")
	}

	frontmatter := strings.Join(lines[1:closingIndex], "\n")
	body := ""
	if closingIndex+1 < len(lines) {
		body = strings.Join(lines[closingIndex+1:], "\n")
	}
	return frontmatter, body, nil
}
