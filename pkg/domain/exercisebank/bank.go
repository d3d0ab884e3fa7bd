// Package exercisebank is the static catalog of movements used for
// substitution and fallback program synthesis.
package exercisebank

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Difficulty levels in ascending order.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

var difficultyRank = map[string]int{
	DifficultyBeginner:     1,
	DifficultyIntermediate: 2,
	DifficultyAdvanced:     3,
}

// MaxSubstitutes caps SubstitutesFor results.
const MaxSubstitutes = 5

// Exercise is one catalog movement.
type Exercise struct {
	ID               string   `yaml:"id" json:"id"`
	Name             string   `yaml:"name" json:"name"`
	Aliases          []string `yaml:"aliases" json:"aliases,omitempty"`
	Category         string   `yaml:"category" json:"category"`
	PrimaryMuscle    string   `yaml:"primary" json:"primaryMuscle"`
	SecondaryMuscles []string `yaml:"secondary" json:"secondaryMuscles,omitempty"`
	Equipment        string   `yaml:"equipment" json:"equipment"`
	Pattern          string   `yaml:"pattern" json:"pattern"`
	Difficulty       string   `yaml:"difficulty" json:"difficulty"`
	Compound         bool     `yaml:"compound" json:"compound"`
	BodyParts        []string `yaml:"body_parts" json:"bodyParts,omitempty"`
}

// DifficultyRank orders difficulties; unknown values rank as intermediate.
func (e Exercise) DifficultyRank() int {
	if r, ok := difficultyRank[e.Difficulty]; ok {
		return r
	}
	return difficultyRank[DifficultyIntermediate]
}

type catalog struct {
	Exercises []Exercise `yaml:"exercises"`
}

// Bank is an indexed, read-only exercise catalog.
type Bank struct {
	exercises []Exercise
	byID      map[string]int
	byName    map[string]int
	byAlias   map[string]int
}

// Load parses a YAML catalog and builds lookup indexes.
func Load(data []byte) (*Bank, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Exercises) == 0 {
		return nil, fmt.Errorf("catalog has no exercises")
	}

	b := &Bank{
		exercises: c.Exercises,
		byID:      make(map[string]int, len(c.Exercises)),
		byName:    make(map[string]int, len(c.Exercises)),
		byAlias:   make(map[string]int),
	}
	for i, ex := range c.Exercises {
		if ex.ID == "" || ex.Name == "" || ex.Category == "" {
			return nil, fmt.Errorf("catalog entry %d: id, name and category are required", i)
		}
		if _, dup := b.byID[ex.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, ex.ID)
		}
		b.byID[ex.ID] = i
		b.byName[normalize(ex.Name)] = i
		for _, alias := range ex.Aliases {
			key := normalize(alias)
			if _, taken := b.byAlias[key]; !taken {
				b.byAlias[key] = i
			}
		}
	}
	return b, nil
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
)

// Default returns the embedded catalog.
func Default() *Bank {
	defaultOnce.Do(func() {
		b, err := Load(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("exercisebank: embedded catalog invalid: %v", err))
		}
		defaultBank = b
	})
	return defaultBank
}

// All returns every exercise in catalog order.
func (b *Bank) All() []Exercise {
	out := make([]Exercise, len(b.exercises))
	copy(out, b.exercises)
	return out
}

// ByID looks up an exercise by id.
func (b *Bank) ByID(id string) (Exercise, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Exercise{}, false
	}
	return b.exercises[i], true
}

// ByCategory returns exercises in a selection category.
func (b *Bank) ByCategory(category string) []Exercise {
	return b.filter(func(e Exercise) bool { return e.Category == category })
}

// ByMuscle returns exercises training muscle as primary or secondary.
func (b *Bank) ByMuscle(muscle string) []Exercise {
	m := strings.ToLower(muscle)
	return b.filter(func(e Exercise) bool {
		if e.PrimaryMuscle == m {
			return true
		}
		for _, s := range e.SecondaryMuscles {
			if s == m {
				return true
			}
		}
		return false
	})
}

// ByEquipment returns exercises needing the given equipment.
func (b *Bank) ByEquipment(equipment string) []Exercise {
	eq := canonicalEquipment(equipment)
	return b.filter(func(e Exercise) bool { return e.Equipment == eq })
}

// ByPattern returns exercises with the given movement pattern.
func (b *Bank) ByPattern(pattern string) []Exercise {
	p := strings.ToLower(pattern)
	return b.filter(func(e Exercise) bool { return e.Pattern == p })
}

// ByDifficulty returns exercises at the given difficulty.
func (b *Bank) ByDifficulty(difficulty string) []Exercise {
	d := strings.ToLower(difficulty)
	return b.filter(func(e Exercise) bool { return e.Difficulty == d })
}

// SubstitutesFor returns up to MaxSubstitutes exercises sharing the movement
// pattern and primary muscle of id, closest difficulty first.
func (b *Bank) SubstitutesFor(id string) []Exercise {
	src, ok := b.ByID(id)
	if !ok {
		return nil
	}
	subs := b.filter(func(e Exercise) bool {
		return e.ID != src.ID && e.Pattern == src.Pattern && e.PrimaryMuscle == src.PrimaryMuscle
	})
	sort.SliceStable(subs, func(i, j int) bool {
		di := abs(subs[i].DifficultyRank() - src.DifficultyRank())
		dj := abs(subs[j].DifficultyRank() - src.DifficultyRank())
		if di != dj {
			return di < dj
		}
		return subs[i].Name < subs[j].Name
	})
	if len(subs) > MaxSubstitutes {
		subs = subs[:MaxSubstitutes]
	}
	return subs
}

func (b *Bank) filter(keep func(Exercise) bool) []Exercise {
	var out []Exercise
	for _, e := range b.exercises {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

var equipmentAliases = map[string]string{
	"dumbbells":        "dumbbell",
	"db":               "dumbbell",
	"barbells":         "barbell",
	"bb":               "barbell",
	"kettlebells":      "kettlebell",
	"kb":               "kettlebell",
	"cables":           "cable",
	"cable machine":    "cable",
	"machines":         "machine",
	"band":             "bands",
	"resistance bands": "bands",
	"pullup bar":       "pull-up bar",
	"pull up bar":      "pull-up bar",
	"none":             "bodyweight",
	"body weight":      "bodyweight",
}

func canonicalEquipment(s string) string {
	e := strings.ToLower(strings.TrimSpace(s))
	if canon, ok := equipmentAliases[e]; ok {
		return canon
	}
	return e
}

// normalize lowercases, strips punctuation and collapses whitespace.
// Hyphens become spaces so "Pull-Up" and "pull up" agree.
func normalize(s string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ':
			result.WriteRune(r)
		case r == '-':
			result.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
