package exercisebank

import "strings"

// Exclusions is a resolved set of user exclusions: named exercises, raw
// names outside the catalog, and injured body parts.
type Exclusions struct {
	ids   map[string]bool
	names map[string]bool
	parts map[string]bool
}

// knownBodyParts are the joint tags carried by catalog entries.
var knownBodyParts = map[string]string{
	"knee":       "knee",
	"knees":      "knee",
	"hip":        "hip",
	"hips":       "hip",
	"shoulder":   "shoulder",
	"shoulders":  "shoulder",
	"elbow":      "elbow",
	"elbows":     "elbow",
	"wrist":      "wrist",
	"wrists":     "wrist",
	"lower back": "lower back",
	"back":       "lower back",
	"low back":   "lower back",
	"lumbar":     "lower back",
}

// Exclusions resolves free-text terms against the catalog. A term naming a
// body part excludes every exercise loading it; other terms exclude the
// exercise they resolve to, and are also kept as raw names.
func (b *Bank) Exclusions(terms []string) Exclusions {
	ex := Exclusions{
		ids:   make(map[string]bool),
		names: make(map[string]bool),
		parts: make(map[string]bool),
	}
	for _, term := range terms {
		key := normalize(term)
		if key == "" {
			continue
		}
		if part, ok := knownBodyParts[key]; ok {
			ex.parts[part] = true
			continue
		}
		ex.names[key] = true
		ex.names[strings.TrimSuffix(key, "s")] = true
		if res := b.Lookup(term); res.Matched {
			ex.ids[res.Exercise.ID] = true
		}
	}
	return ex
}

// Excludes reports whether a catalog exercise is excluded.
func (x Exclusions) Excludes(e Exercise) bool {
	if x.ids[e.ID] || x.ExcludesName(e.Name) {
		return true
	}
	for _, part := range e.BodyParts {
		if x.parts[part] {
			return true
		}
	}
	return false
}

// ExcludesName reports whether a free-text name was excluded.
func (x Exclusions) ExcludesName(name string) bool {
	key := normalize(name)
	return x.names[key] || x.names[strings.TrimSuffix(key, "s")]
}

// Empty reports whether nothing is excluded.
func (x Exclusions) Empty() bool {
	return len(x.ids) == 0 && len(x.names) == 0 && len(x.parts) == 0
}

// AllowsEquipment reports whether an exercise can be done with the listed
// equipment. Bodyweight movements and empty lists always pass.
func AllowsEquipment(e Exercise, equipment []string) bool {
	if len(equipment) == 0 || e.Equipment == "bodyweight" {
		return true
	}
	for _, item := range equipment {
		if canonicalEquipment(item) == e.Equipment {
			return true
		}
	}
	return false
}
