// Package narrative generates the satirical text attached to lost bets and
// day highlights. The text collaborator is a fallible remote call; every
// path degrades to a deterministic fallback template so settlement never
// blocks on it.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/astralworks/starlog/internal/lru"
	"github.com/astralworks/starlog/internal/penalty"
	"github.com/astralworks/starlog/internal/retry"
)

const (
	minContentLength = 30
	maxContentLength = 180
)

// TextCompleter is the minimal surface needed from a language-model backend.
type TextCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	ModelID() string
}

// suggestionKey identifies a day's closing stats for suggestion caching.
type suggestionKey struct {
	winCount          int
	loseCount         int
	totalFocusMinutes int64
}

// Generator produces penalty diaries and day suggestions.
type Generator struct {
	completer   TextCompleter
	templates   *ToneTemplates
	suggestions *lru.Cache[suggestionKey, string]
	retryCfg    retry.Config
	logger      zerolog.Logger
}

// NewGenerator wires a text backend and tone templates. completer may be nil,
// in which case every call returns fallback content.
func NewGenerator(completer TextCompleter, templates *ToneTemplates, logger zerolog.Logger) *Generator {
	if templates == nil {
		templates = DefaultToneTemplates()
	}
	return &Generator{
		completer:   completer,
		templates:   templates,
		suggestions: lru.New[suggestionKey, string](256),
		retryCfg:    retry.DefaultConfig(),
		logger:      logger.With().Str("component", "narrative").Logger(),
	}
}

// SetRetryConfig overrides the collaborator retry policy.
func (g *Generator) SetRetryConfig(cfg retry.Config) { g.retryCfg = cfg }

// complete calls the text backend, retrying transient failures (429/5xx).
func (g *Generator) complete(ctx context.Context, system, prompt string) (string, error) {
	var text string
	err := retry.Do(ctx, g.retryCfg, func(ctx context.Context) error {
		var cerr error
		text, cerr = g.completer.Complete(ctx, system, prompt)
		return cerr
	})
	return text, err
}

// PenaltyContent generates the diary text for a lost bet. On any collaborator
// failure it returns the fallback template content and a nil error.
func (g *Generator) PenaltyContent(ctx context.Context, pc penalty.Context) string {
	if g.completer == nil {
		return FallbackPenaltyContent(pc)
	}

	prompt := g.buildPenaltyPrompt(pc)
	text, err := g.complete(ctx, g.templates.PenaltySystem, prompt)
	if err != nil {
		g.logger.Warn().Err(err).Str("pledge", pc.OriginalPledge).Msg("penalty generation failed, using fallback")
		return FallbackPenaltyContent(pc)
	}

	return clampContent(text)
}

// DaySuggestion generates the coaching line for a finalized day. Falls back
// to a deterministic sentence on failure.
func (g *Generator) DaySuggestion(ctx context.Context, winCount, loseCount int, totalFocusMinutes int64) string {
	if g.completer == nil {
		return FallbackDaySuggestion(winCount, loseCount, totalFocusMinutes)
	}

	// Identical stats yield identical advice; skip the remote call.
	key := suggestionKey{winCount, loseCount, totalFocusMinutes}
	if cached, ok := g.suggestions.Get(key); ok {
		return cached
	}

	prompt := fmt.Sprintf(g.templates.SuggestionPrompt, winCount, loseCount, totalFocusMinutes)
	text, err := g.complete(ctx, g.templates.SuggestionSystem, prompt)
	if err != nil {
		g.logger.Warn().Err(err).Msg("day suggestion generation failed, using fallback")
		return FallbackDaySuggestion(winCount, loseCount, totalFocusMinutes)
	}

	content := clampContent(text)
	g.suggestions.Put(key, content)
	return content
}

func (g *Generator) buildPenaltyPrompt(pc penalty.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pledge: %s\n", pc.OriginalPledge)
	fmt.Fprintf(&b, "Wagered: %d minutes, focused: %d minutes\n",
		int(pc.TargetDuration.Minutes()), int(pc.ActualDuration.Minutes()))
	fmt.Fprintf(&b, "Final stamina: %d%%, focus gauge: %d%%\n",
		pc.FinalStaminaPercent, pc.FinalGaugePercent)
	fmt.Fprintf(&b, "Verdict: %s\n", pc.FailReason)
	for _, i := range pc.Interruptions {
		fmt.Fprintf(&b, "- %s for %d min (-%d stamina)\n",
			i.Reason.DisplayName(), int(i.Duration.Minutes()), i.StaminaConsumed)
	}
	b.WriteString(g.templates.PenaltyInstruction)
	return b.String()
}

// FallbackPenaltyContent concatenates the context fields into a templated
// sentence. Deterministic for identical input.
func FallbackPenaltyContent(pc penalty.Context) string {
	content := fmt.Sprintf(
		"Pledged %q for %d minutes, managed %d. Verdict: %s. Stamina ended at %d%%, focus gauge at %d%%, with %d interruption(s) on record.",
		pc.OriginalPledge,
		int(pc.TargetDuration.Minutes()),
		int(pc.ActualDuration.Minutes()),
		pc.FailReason,
		pc.FinalStaminaPercent,
		pc.FinalGaugePercent,
		len(pc.Interruptions),
	)
	return clampContent(content)
}

// FallbackDaySuggestion renders a deterministic coaching line.
func FallbackDaySuggestion(winCount, loseCount int, totalFocusMinutes int64) string {
	content := fmt.Sprintf(
		"Today closed with %d won and %d lost across %d focused minutes. Same bet again tomorrow, perhaps with fewer detours.",
		winCount, loseCount, totalFocusMinutes,
	)
	return clampContent(content)
}

// clampContent enforces the 30-180 character content contract.
func clampContent(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "Nothing recorded. That, too, is a record."
	}

	runes := []rune(trimmed)
	if len(runes) > maxContentLength {
		return string(runes[:maxContentLength-3]) + "..."
	}
	if len(runes) < minContentLength {
		return trimmed + " Tomorrow may go differently. Perhaps."
	}
	return trimmed
}
