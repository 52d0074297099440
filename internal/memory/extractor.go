// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
)

var painPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)my (\w+) (hurts?|aches?|is sore|is (swollen|stiff|tight))`),
	regexp.MustCompile(`(?i)(\w+) (pain|injury|strain|sprain)`),
	regexp.MustCompile(`(?i)(tweaked|rolled|pulled|injured) my (\w+)`),
}

var progressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(hit|got|reached|achieved) (\d+)( inch| inches| cm)? (vertical|vert)`),
	regexp.MustCompile(`(?i)\b(pr|personal record|new best|pb)\b`),
	regexp.MustCompile(`(?i)(improved|increased|better) (my )?(\w+)`),
	regexp.MustCompile(`(?i)i (can now|finally|just) (\w+)`),
}

var goalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i want to (\w+)`),
	regexp.MustCompile(`(?i)my goal is (to )?(\w+)`),
	regexp.MustCompile(`(?i)trying to (\w+)`),
	regexp.MustCompile(`(?i)working (on|towards) (\w+)`),
}

var bodyParts = []string{
	"ankle", "knee", "hip", "back", "shoulder", "wrist",
	"elbow", "calf", "hamstring", "quad", "glute", "core",
	"foot", "achilles", "shin", "groin", "neck",
}

// negativePattern matches a body part followed (within the sentence)
// by a pain indicator.
func negativePattern(part string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(part) + `[^.]*?(hurt|pain|sore|injury|strain|swollen|stiff|tight)`)
}

// Observation is one memory candidate found in a raw message
type Observation struct {
	Content    string
	MemoryType string
	Confidence float64
}

// ScanMessage finds memory candidates in a raw athlete message: pain
// mentions become injury memories, progress mentions become progress
// memories, goal phrasings become goal memories.
func ScanMessage(message string) []Observation {
	lower := strings.ToLower(message)
	obs := []Observation{}

	for _, p := range painPatterns {
		for _, m := range p.FindAllString(lower, -1) {
			obs = append(obs, Observation{
				Content:    fmt.Sprintf("Athlete reported: %s", m),
				MemoryType: database.MemoryTypeInjury,
				Confidence: 0.9,
			})
		}
	}
	for _, p := range progressPatterns {
		for _, m := range p.FindAllString(lower, -1) {
			obs = append(obs, Observation{
				Content:    fmt.Sprintf("Progress update: %s", m),
				MemoryType: database.MemoryTypeProgress,
				Confidence: 0.85,
			})
		}
	}
	for _, p := range goalPatterns {
		for _, m := range p.FindAllString(lower, -1) {
			obs = append(obs, Observation{
				Content:    fmt.Sprintf("Goal mentioned: %s", m),
				MemoryType: database.MemoryTypeGoal,
				Confidence: 0.8,
			})
		}
	}

	return obs
}

// RuleExtractor is the pattern-based Extractor: body parts mentioned
// alongside pain indicators lose score, body parts mentioned alongside
// progress indicators gain it. It never emits edges; correlations
// arrive through the add_correlation tool or a richer extractor.
type RuleExtractor struct{}

// NewRuleExtractor creates the built-in rule-based extractor
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// Extract implements Extractor
func (e *RuleExtractor) Extract(memoryType, content string) (Extraction, error) {
	lower := strings.ToLower(content)
	ex := Extraction{Nodes: []NodeDelta{}, Edges: []EdgeDelta{}}

	for _, part := range bodyParts {
		if !strings.Contains(lower, part) {
			continue
		}
		if negativePattern(part).MatchString(lower) {
			delta := -2
			ex.Nodes = append(ex.Nodes, NodeDelta{
				Key:        part,
				Category:   database.NodeCategoryBodyPart,
				Status:     "Sore",
				ScoreDelta: &delta,
				Notes:      fmt.Sprintf("Conversation mention: %s", truncate(content, 100)),
			})
		}
	}

	if matchesAny(progressPatterns, lower) {
		for _, part := range bodyParts {
			if !strings.Contains(lower, part) {
				continue
			}
			if hasSoreDelta(ex.Nodes, part) {
				continue
			}
			delta := 1
			ex.Nodes = append(ex.Nodes, NodeDelta{
				Key:        part,
				Category:   database.NodeCategoryBodyPart,
				Status:     "Improving",
				ScoreDelta: &delta,
				Notes:      fmt.Sprintf("Progress noted: %s", truncate(content, 100)),
			})
		}
	}

	// Memory types without a body-part mention still leave a trace as
	// a mental or recovery node so the assembler can surface them.
	if len(ex.Nodes) == 0 {
		switch memoryType {
		case database.MemoryTypeEmotion:
			ex.Nodes = append(ex.Nodes, NodeDelta{
				Key:      "emotional_state",
				Category: database.NodeCategoryMental,
				Status:   "Noted",
				Notes:    truncate(content, 100),
			})
		case database.MemoryTypeGoal:
			ex.Nodes = append(ex.Nodes, NodeDelta{
				Key:      "current_goal",
				Category: database.NodeCategoryMental,
				Status:   "Active",
				Notes:    truncate(content, 100),
			})
		}
	}

	return ex, nil
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func hasSoreDelta(nodes []NodeDelta, key string) bool {
	for _, n := range nodes {
		if n.Key == key {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
