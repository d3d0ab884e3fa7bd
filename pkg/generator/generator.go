// Package generator produces candidate programs from a UserContext, either
// by delegating to an external text generator or by deterministic synthesis
// from the exercise bank.
package generator

import (
	"context"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// Strategy names recorded on generated programs.
const (
	StrategyExternal = "external"
	StrategyFallback = "fallback"
)

// Strategy produces an unvalidated candidate program.
type Strategy interface {
	// Name returns the unique identifier recorded on the program.
	Name() string

	// Generate builds a candidate. Candidates are not validated and carry no
	// ID, start date or timestamps.
	Generate(ctx context.Context, uc types.UserContext) (*types.Program, error)
}
