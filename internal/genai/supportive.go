package genai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"glucotrack/internal/model"
)

const (
	fallbackInsightSummary       = "You've been consistent with your tracking this week. Great job keeping your levels stable!"
	fallbackInsightEncouragement = "Consistency is key to understanding your patterns. Keep it up!"
)

// Generator is the fallible side of copy generation.
type Generator interface {
	GenerateCopy(ctx context.Context, label model.RoutineLabel) ([]string, error)
	GenerateInsight(ctx context.Context, s model.WeeklySummary) (model.Insight, error)
}

// Supportive never fails its caller. Any generator error, empty or blank
// output is replaced by fixed text. A nil generator means fallback only.
type Supportive struct {
	gen    Generator
	logger *zap.Logger
}

func NewSupportive(gen Generator, logger *zap.Logger) *Supportive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supportive{gen: gen, logger: logger}
}

// SupportiveCopy returns candidate reminder texts for label.
func (s *Supportive) SupportiveCopy(ctx context.Context, label model.RoutineLabel) []string {
	if s.gen == nil {
		return FallbackCopy(label)
	}
	out, err := s.gen.GenerateCopy(ctx, label)
	if err != nil {
		s.logger.Warn("copy generation failed, using fallback",
			zap.String("label", string(label)), zap.Error(err))
		return FallbackCopy(label)
	}
	out = nonBlank(out)
	if len(out) == 0 {
		s.logger.Warn("copy generation returned nothing, using fallback", zap.String("label", string(label)))
		return FallbackCopy(label)
	}
	return out
}

// Insights reviews a summary.
func (s *Supportive) Insights(ctx context.Context, summary model.WeeklySummary) model.Insight {
	if s.gen == nil {
		return FallbackInsight()
	}
	out, err := s.gen.GenerateInsight(ctx, summary)
	if err != nil {
		s.logger.Warn("insight generation failed, using fallback", zap.Error(err))
		return FallbackInsight()
	}
	if strings.TrimSpace(out.Summary) == "" || strings.TrimSpace(out.Encouragement) == "" {
		s.logger.Warn("insight generation returned partial output, using fallback")
		return FallbackInsight()
	}
	return out
}

func FallbackCopy(label model.RoutineLabel) []string {
	return []string{
		fmt.Sprintf("Time for your %s check.", label),
		fmt.Sprintf("How are you feeling? It's time to log your %s reading.", label),
		fmt.Sprintf("Quick check-in: Time for your %s measurement.", label),
		fmt.Sprintf("Your health matters. Let's record that %s reading.", label),
		fmt.Sprintf("Ready for your %s log? It only takes a second.", label),
	}
}

func FallbackInsight() model.Insight {
	return model.Insight{Summary: fallbackInsightSummary, Encouragement: fallbackInsightEncouragement}
}

func nonBlank(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
