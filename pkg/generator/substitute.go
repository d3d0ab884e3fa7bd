package generator

import (
	"fmt"
	"strings"

	"github.com/ripixel/fitplan-server/pkg/domain/exercisebank"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// ReplaceExcluded swaps every exercise the user excluded, by name or by an
// injured joint, for the closest catalog substitute that is allowed and not
// already on the day, widening to the exercise's category when no close
// substitute fits. Exercises with no usable substitute are removed. It
// returns one warning per distinct change and whether anything was removed.
func (f *Fallback) ReplaceExcluded(prog *types.Program, uc types.UserContext) ([]string, bool) {
	excl := f.bank.Exclusions(uc.ExcludedExercises)
	if prog == nil || excl.Empty() {
		return nil, false
	}

	var warnings []string
	noted := make(map[string]bool)
	note := func(msg string) {
		if !noted[msg] {
			noted[msg] = true
			warnings = append(warnings, msg)
		}
	}

	removed := false
	for wi := range prog.Weeks {
		for di := range prog.Weeks[wi].TrainingDays {
			day := &prog.Weeks[wi].TrainingDays[di]
			onDay := make(map[string]bool, len(day.Exercises))
			for _, ex := range day.Exercises {
				onDay[strings.ToLower(ex.Name)] = true
			}

			kept := day.Exercises[:0]
			for _, ex := range day.Exercises {
				entry, matched := f.resolve(ex.Name)
				if !excl.Excludes(entry) {
					kept = append(kept, ex)
					continue
				}
				if sub, ok := f.substitute(entry, matched, excl, uc.EquipmentList, onDay); ok {
					note(fmt.Sprintf("replaced %s with %s", ex.Name, sub.Name))
					onDay[strings.ToLower(sub.Name)] = true
					ex.Name = sub.Name
					kept = append(kept, ex)
					continue
				}
				note(fmt.Sprintf("removed %s: no allowed substitute", ex.Name))
				removed = true
			}
			day.Exercises = kept
		}
	}
	return warnings, removed
}

// resolve maps a free-text name to its catalog entry. Names outside the
// catalog keep their own name and any joint tags known for warmups and
// stretches.
func (f *Fallback) resolve(name string) (exercisebank.Exercise, bool) {
	if res := f.bank.Lookup(name); res.Matched {
		return res.Exercise, true
	}
	return exercisebank.Exercise{Name: name, BodyParts: drillParts[name]}, false
}

func (f *Fallback) substitute(e exercisebank.Exercise, matched bool, excl exercisebank.Exclusions, equipment []string, onDay map[string]bool) (exercisebank.Exercise, bool) {
	if !matched {
		return exercisebank.Exercise{}, false
	}
	candidates := append(f.bank.SubstitutesFor(e.ID), f.bank.ByCategory(e.Category)...)
	for _, sub := range candidates {
		if sub.ID == e.ID || excl.Excludes(sub) || !exercisebank.AllowsEquipment(sub, equipment) || onDay[strings.ToLower(sub.Name)] {
			continue
		}
		return sub, true
	}
	return exercisebank.Exercise{}, false
}
