package generator

import (
	"context"
	"log/slog"
	"time"

	shared "github.com/ripixel/fitplan-server/pkg"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// Defaults for the external strategy.
const (
	DefaultTimeout   = 45 * time.Second
	DefaultMaxTokens = 6000
)

// External delegates generation to a text generator and parses its reply.
type External struct {
	text      shared.TextGenerator
	logger    *slog.Logger
	timeout   time.Duration
	maxTokens int
}

// NewExternal creates the external strategy. Non-positive limits use defaults.
func NewExternal(text shared.TextGenerator, logger *slog.Logger, timeout time.Duration, maxTokens int) *External {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &External{text: text, logger: logger, timeout: timeout, maxTokens: maxTokens}
}

func (e *External) Name() string { return StrategyExternal }

// Generate never returns an error other than ErrGenerationUnusable.
func (e *External) Generate(ctx context.Context, uc types.UserContext) (*types.Program, error) {
	req := shared.TextRequest{
		Prompt:       BuildPrompt(uc),
		SystemPrompt: systemPrompt,
		MaxTokens:    e.maxTokens,
	}

	start := time.Now()
	res, err := e.call(ctx, req)
	if err != nil {
		e.logger.Warn("External generation did not complete", "user_id", uc.UserID, "error", err)
		return nil, err
	}
	e.logger.Info("External generation returned", "user_id", uc.UserID, "source", res.Source,
		"used_fallback", res.UsedFallback, "chars", len(res.Text), "duration_ms", time.Since(start).Milliseconds())
	if res.UsedFallback {
		return nil, apperrors.ErrGenerationUnusable.WithMessage("text generator returned its static fallback")
	}

	prog, err := DecodeCandidate(res.Text)
	if err != nil {
		return nil, err
	}
	prog.UserID = uc.UserID
	prog.Discipline = uc.Discipline
	prog.DaysPerWeek = uc.DaysPerWeek
	if prog.Goal == "" {
		prog.Goal = uc.Goal
	}
	return prog, nil
}

// call races the generator against the timeout. The losing generator call
// is abandoned; its result lands in a buffered channel nobody reads.
func (e *External) call(ctx context.Context, req shared.TextRequest) (shared.TextResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan shared.TextResult, 1)
	go func() {
		done <- e.text.Generate(callCtx, req)
	}()

	select {
	case res := <-done:
		return res, nil
	case <-callCtx.Done():
		return shared.TextResult{}, apperrors.ErrGenerationUnusable.WithCause(apperrors.ErrTimeout.WithCause(callCtx.Err()))
	}
}
