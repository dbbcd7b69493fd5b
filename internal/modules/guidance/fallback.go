package guidance

import (
	"strings"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
)

// FallbackAnswer is served when the LLM call fails. The text is picked by keyword from the
// scripted fallbacks and cause is reported in the error field.
func FallbackAnswer(kb *knowledge.KB, query string, ctx Context, cause error) Answer {
	fb := kb.Fallback()
	ans := newAnswer(kb, kb.Sources().Fallback, ctx)
	ans.Answer = fallbackText(kb, query, ctx)
	ans.Recommendations = fb.Recommendations
	ans.HerbsSupplements = fb.Herbs
	ans.LifestyleTips = fb.LifestyleTips
	if cause != nil {
		ans.Error = "guidance engine temporarily unavailable: " + cause.Error()
	}
	return ans
}

func fallbackText(kb *knowledge.KB, query string, ctx Context) string {
	fb := kb.Fallback()
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "eat", "food", "diet"):
		return dietaryFallback(kb, ctx)
	case containsAny(q, "symptom", "pain", "problem"):
		return fb.Symptoms
	case containsAny(q, "lifestyle", "routine"):
		return strings.ReplaceAll(fb.Lifestyle, "{season}", ctx.Season)
	default:
		return fb.General
	}
}

// dietaryFallback keys the protocol on the leading dosha of the constitution label.
func dietaryFallback(kb *knowledge.KB, ctx Context) string {
	fb := kb.Fallback()
	if ctx.Constitution == "" {
		return fb.DietaryUnknown
	}
	head, _, _ := strings.Cut(strings.ToLower(ctx.Constitution), "-")
	d, ok := knowledge.ParseDosha(head)
	if !ok {
		return fb.DietaryGeneric
	}
	proto, ok := kb.TherapeuticProtocol(d)
	if !ok {
		return fb.DietaryGeneric
	}
	return strings.NewReplacer(
		"{constitution}", ctx.Constitution,
		"{treatment}", strings.ToLower(proto.Treatment),
		"{herbs}", strings.Join(proto.Herbs, ", "),
		"{season}", ctx.Season,
	).Replace(fb.Dietary)
}

// EngineFailureAnswer is served when the rule engine itself cannot produce an answer.
func EngineFailureAnswer(kb *knowledge.KB, query string, ctx Context, cause error) Answer {
	ans := FallbackAnswer(kb, query, ctx, cause)
	ans.Answer = strings.ReplaceAll(kb.Fallback().EngineFailure, "{query}", query)
	return ans
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
