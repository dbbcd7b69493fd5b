package constitution

import "github.com/yungbote/healing-guide-backend/internal/knowledge"

type Recommendations struct {
	Diet      []string `json:"diet"`
	Lifestyle []string `json:"lifestyle"`
	Herbs     []string `json:"herbs"`
	Practices []string `json:"practices"`
}

// RecommendationSource is satisfied by *knowledge.KB.
type RecommendationSource interface {
	Recommendations(d knowledge.Dosha) knowledge.DoshaRecommendations
}

// Recommend concatenates the static lists of the primary and secondary doshas in
// canonical dosha order. Entries are not deduplicated.
func Recommend(src RecommendationSource, r Result) Recommendations {
	out := Recommendations{
		Diet:      []string{},
		Lifestyle: []string{},
		Herbs:     []string{},
		Practices: []string{},
	}
	for _, d := range knowledge.Doshas {
		if !r.Has(d) {
			continue
		}
		rec := src.Recommendations(d)
		out.Diet = append(out.Diet, rec.Diet...)
		out.Lifestyle = append(out.Lifestyle, rec.Lifestyle...)
		out.Herbs = append(out.Herbs, rec.Herbs...)
		out.Practices = append(out.Practices, rec.Practices...)
	}
	return out
}
