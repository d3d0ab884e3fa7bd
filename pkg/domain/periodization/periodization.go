// Package periodization assigns program weeks to training phases and
// derives per-phase intensity and volume targets.
package periodization

import (
	"time"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// DeloadFrequency places a deload phase on every Nth week of default layouts.
const DeloadFrequency = 4

// PhaseConfig is the documented default for a phase name.
type PhaseConfig struct {
	IntensityMin  float64
	IntensityMax  float64
	RPETarget     float64
	VolumePercent int
}

// DefaultPhaseConfigs are applied when a phase omits its intensity range or RPE.
var DefaultPhaseConfigs = map[types.PhaseName]PhaseConfig{
	types.PhaseAccumulation: {IntensityMin: 65, IntensityMax: 75, RPETarget: 7, VolumePercent: 100},
	types.PhaseStrength:     {IntensityMin: 75, IntensityMax: 85, RPETarget: 8, VolumePercent: 90},
	types.PhaseIntensity:    {IntensityMin: 82, IntensityMax: 90, RPETarget: 8.5, VolumePercent: 75},
	types.PhasePeak:         {IntensityMin: 88, IntensityMax: 97, RPETarget: 9, VolumePercent: 50},
	types.PhaseDeload:       {IntensityMin: 50, IntensityMax: 60, RPETarget: 5, VolumePercent: 60},
	types.PhaseTransition:   {IntensityMin: 55, IntensityMax: 65, RPETarget: 6, VolumePercent: 70},
}

// buildOrder is the sequence of working phases between deloads.
var buildOrder = []types.PhaseName{
	types.PhaseAccumulation,
	types.PhaseStrength,
	types.PhaseIntensity,
	types.PhasePeak,
}

// PhaseForWeek returns the first phase of the program containing week, or nil.
func PhaseForWeek(p *types.Program, week int) *types.Phase {
	if p == nil {
		return nil
	}
	return FindPhase(p.Periodization.Phases, week)
}

// FindPhase is a linear scan over phases returning the first whose range
// contains week. A week outside every range has no phase.
func FindPhase(phases []types.Phase, week int) *types.Phase {
	for i := range phases {
		if week >= phases[i].StartWeek && week <= phases[i].EndWeek {
			return &phases[i]
		}
	}
	return nil
}

// IsDeload reports whether week falls in a deload phase.
func IsDeload(phases []types.Phase, week int) bool {
	ph := FindPhase(phases, week)
	return ph != nil && ph.Name == types.PhaseDeload
}

// NormalizePhases converts week-list phases to range form and orders each
// range. Order of the list is preserved. It reports whether anything changed.
func NormalizePhases(phases []types.Phase) bool {
	changed := false
	for i := range phases {
		ph := &phases[i]
		if len(ph.Weeks) > 0 {
			lo, hi := ph.Weeks[0], ph.Weeks[0]
			for _, w := range ph.Weeks[1:] {
				if w < lo {
					lo = w
				}
				if w > hi {
					hi = w
				}
			}
			ph.StartWeek, ph.EndWeek = lo, hi
			ph.Weeks = nil
			changed = true
		}
		if ph.StartWeek > ph.EndWeek {
			ph.StartWeek, ph.EndWeek = ph.EndWeek, ph.StartWeek
			changed = true
		}
	}
	return changed
}

// ApplyPhaseDefaults fills missing intensity ranges and RPE targets.
// Unknown phase names fall back to the accumulation defaults.
func ApplyPhaseDefaults(phases []types.Phase) bool {
	changed := false
	for i := range phases {
		ph := &phases[i]
		cfg, ok := DefaultPhaseConfigs[ph.Name]
		if !ok {
			cfg = DefaultPhaseConfigs[types.PhaseAccumulation]
		}
		if len(ph.IntensityRange) != 2 || ph.IntensityRange[0] <= 0 || ph.IntensityRange[1] < ph.IntensityRange[0] {
			ph.IntensityRange = []float64{cfg.IntensityMin, cfg.IntensityMax}
			changed = true
		}
		if ph.RPETarget <= 0 {
			ph.RPETarget = cfg.RPETarget
			changed = true
		}
	}
	return changed
}

// DefaultPhases lays out a program of the given length: every
// DeloadFrequency-th week is a deload, and the stretches between deloads
// step through accumulation, strength, intensity and peak, then transition.
func DefaultPhases(durationWeeks int) []types.Phase {
	var phases []types.Phase
	block := 0
	week := 1
	for week <= durationWeeks {
		if week%DeloadFrequency == 0 {
			phases = append(phases, newPhase(types.PhaseDeload, week, week))
			week++
			continue
		}
		end := week
		for end+1 <= durationWeeks && (end+1)%DeloadFrequency != 0 {
			end++
		}
		name := types.PhaseTransition
		if block < len(buildOrder) {
			name = buildOrder[block]
		}
		phases = append(phases, newPhase(name, week, end))
		block++
		week = end + 1
	}
	return phases
}

func newPhase(name types.PhaseName, start, end int) types.Phase {
	cfg := DefaultPhaseConfigs[name]
	return types.Phase{
		Name:           name,
		StartWeek:      start,
		EndWeek:        end,
		IntensityRange: []float64{cfg.IntensityMin, cfg.IntensityMax},
		RPETarget:      cfg.RPETarget,
	}
}

// Targets are the phase-level prescriptions read by content generation.
type Targets struct {
	IntensityMin     float64
	IntensityMax     float64
	RPETarget        float64
	VolumeMultiplier float64
}

// PhaseTargets derives targets for a phase, falling back to defaults for
// anything the phase leaves unset. A nil phase yields accumulation targets.
func PhaseTargets(ph *types.Phase) Targets {
	name := types.PhaseAccumulation
	if ph != nil {
		name = ph.Name
	}
	cfg, ok := DefaultPhaseConfigs[name]
	if !ok {
		cfg = DefaultPhaseConfigs[types.PhaseAccumulation]
	}
	t := Targets{
		IntensityMin:     cfg.IntensityMin,
		IntensityMax:     cfg.IntensityMax,
		RPETarget:        cfg.RPETarget,
		VolumeMultiplier: float64(cfg.VolumePercent) / 100,
	}
	if ph != nil {
		if len(ph.IntensityRange) == 2 && ph.IntensityRange[0] > 0 {
			t.IntensityMin, t.IntensityMax = ph.IntensityRange[0], ph.IntensityRange[1]
		}
		if ph.RPETarget > 0 {
			t.RPETarget = ph.RPETarget
		}
	}
	return t
}

// Midpoint returns the centre of the target intensity range.
func (t Targets) Midpoint() float64 {
	return (t.IntensityMin + t.IntensityMax) / 2
}

// Annotate normalizes the program's phases, fills defaults, and derives each
// weekly template's deload flag from the phase list. It reports whether the
// program was modified.
func Annotate(p *types.Program) bool {
	changed := false
	if len(p.Periodization.Phases) == 0 {
		p.Periodization.Phases = DefaultPhases(p.DurationWeeks)
		changed = true
	}
	if p.Periodization.Model == "" {
		p.Periodization.Model = types.ModelLinear
		changed = true
	}
	if NormalizePhases(p.Periodization.Phases) {
		changed = true
	}
	if ApplyPhaseDefaults(p.Periodization.Phases) {
		changed = true
	}
	for i := range p.Weeks {
		deload := IsDeload(p.Periodization.Phases, p.Weeks[i].WeekNumber)
		if p.Weeks[i].DeloadWeek != deload {
			p.Weeks[i].DeloadWeek = deload
			changed = true
		}
	}
	return changed
}

// WeekAt returns the 1-indexed program week containing now. Dates before
// the start count as week 1.
func WeekAt(start, now time.Time) int {
	sy, sm, sd := start.Date()
	ny, nm, nd := now.In(start.Location()).Date()
	a := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days/7 + 1
}
