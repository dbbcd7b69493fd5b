package guidance

import (
	"strings"
	"time"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
)

const (
	maxRecommendations = 5
	maxLifestyleTips   = 3
)

// StructureLLMAnswer keeps the model's text verbatim and pulls out recommendation lines, known
// herbs and lifestyle lines for the structured fields.
func StructureLLMAnswer(kb *knowledge.KB, text string, ctx Context, now time.Time) Answer {
	src := kb.Sources()
	kw := kb.Keywords()

	ans := newAnswer(kb, src.LLM, ctx)
	ans.Answer = text
	ans.KnowledgeBases = src.KnowledgeBases
	ts := now.UTC()
	ans.Timestamp = &ts
	ans.Recommendations = linesWith(text, kw.RecommendationMarkers, maxRecommendations)
	ans.HerbsSupplements = mentionedHerbs(text, kw.Herbs)
	ans.LifestyleTips = linesWith(text, kw.LifestyleMarkers, maxLifestyleTips)
	return ans
}

func linesWith(text string, markers []string, limit int) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if len(out) == limit {
			break
		}
		lower := strings.ToLower(line)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				out = append(out, strings.TrimSpace(line))
				break
			}
		}
	}
	return out
}

func mentionedHerbs(text string, herbs []string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, h := range herbs {
		if strings.Contains(lower, h) {
			found = append(found, titleCase(h))
		}
	}
	return orEmpty(dedupe(found))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
