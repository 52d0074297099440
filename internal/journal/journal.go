// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
)

const (
	commitAuthor = "Wolfden"
	commitEmail  = "journal@wolfden.local"
)

// Journal writes audit entries into a git-backed directory tree:
// <root>/<athlete_id>/<uuid>.md, one commit per entry.
type Journal struct {
	root   string
	repo   *gogit.Repository
	logger *zap.Logger
}

// Open opens the journal at root, initializing the directory and git
// repository on first use.
func Open(root string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	repo, err := gogit.PlainOpen(root)
	if err != nil {
		repo, err = gogit.PlainInit(root, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize journal repository: %w", err)
		}
	}

	return &Journal{root: root, repo: repo, logger: logger}, nil
}

// Root returns the journal's directory
func (j *Journal) Root() string {
	return j.root
}

// Record writes the memory as a markdown file and commits it.
// Implements memory.Journal.
func (j *Journal) Record(mem *database.WolfMemory) error {
	entry := &Entry{
		UUID:          mem.UUID,
		AthleteID:     mem.AthleteID,
		MemoryType:    mem.MemoryType,
		SourceMessage: mem.SourceMessage,
		ExtractedAt:   mem.ExtractedAt,
		Content:       mem.Content,
	}

	markdown, err := entry.ToMarkdown()
	if err != nil {
		return err
	}

	athleteDir := filepath.Join(j.root, mem.AthleteID)
	if err := os.MkdirAll(athleteDir, 0755); err != nil {
		return fmt.Errorf("failed to create athlete journal directory: %w", err)
	}

	path := filepath.Join(athleteDir, mem.UUID+".md")
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}

	message := fmt.Sprintf("Capture %s memory for %s", mem.MemoryType, mem.AthleteID)
	if err := j.commit(path, message); err != nil {
		return err
	}

	j.logger.Debug("journal entry recorded",
		zap.String("athlete", mem.AthleteID),
		zap.String("memory", mem.UUID))
	return nil
}

func (j *Journal) commit(path, message string) error {
	worktree, err := j.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	relPath, err := filepath.Rel(j.root, path)
	if err != nil {
		relPath = path
	}
	if _, err := worktree.Add(relPath); err != nil {
		return fmt.Errorf("failed to stage journal entry: %w", err)
	}

	_, err = worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  commitAuthor,
			Email: commitEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit journal entry: %w", err)
	}
	return nil
}

// Entries parses every journal file for one athlete. Unparseable
// files are skipped with a warning so one corrupt entry cannot block
// a rebuild.
func (j *Journal) Entries(athleteID string) ([]*Entry, error) {
	return j.readDir(filepath.Join(j.root, athleteID))
}

// AllEntries parses every journal file for every athlete
func (j *Journal) AllEntries() ([]*Entry, error) {
	dirs, err := os.ReadDir(j.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal root: %w", err)
	}

	var entries []*Entry
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		athleteEntries, err := j.readDir(filepath.Join(j.root, d.Name()))
		if err != nil {
			return nil, err
		}
		entries = append(entries, athleteEntries...)
	}
	return entries, nil
}

func (j *Journal) readDir(dir string) ([]*Entry, error) {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []*Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	entries := []*Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read journal entry %s: %w", path, err)
		}
		entry, err := ParseMarkdown(string(content))
		if err != nil {
			j.logger.Warn("skipping unparseable journal entry",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
