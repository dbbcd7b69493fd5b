package guidance

import (
	"slices"
	"strings"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
)

// Query types recognised by the pattern table.
const (
	TypeConstitutional = "constitutional"
	TypeSymptoms       = "symptoms"
	TypeDietary        = "dietary"
	TypeLifestyle      = "lifestyle"
	TypeSeasonal       = "seasonal"
	TypeAstrological   = "astrological"
	TypeHerbs          = "herbs"
	TypeAgeRelated     = "age_related"
)

type Analysis struct {
	QueryTypes           []string `json:"query_types"`
	Symptoms             []string `json:"symptoms"`
	BodyParts            []string `json:"body_parts"`
	Emotions             []string `json:"emotions"`
	ConstitutionMentions []string `json:"constitution_mentions"`
	Planets              []string `json:"planets"`
}

func (a Analysis) Is(queryType string) bool {
	return slices.Contains(a.QueryTypes, queryType)
}

// Analyze classifies a free-text question. Matching is done on the lowercased query; keyword
// extraction is plain substring search so "headache" also reports "ache" and "head".
func Analyze(kb *knowledge.KB, query string) Analysis {
	q := strings.ToLower(query)
	kw := kb.Keywords()

	mentions := make([]string, 0, len(knowledge.Doshas))
	for _, d := range knowledge.Doshas {
		if strings.Contains(q, string(d)) {
			mentions = append(mentions, string(d))
		}
	}

	return Analysis{
		QueryTypes:           orEmpty(kb.MatchQueryTypes(q)),
		Symptoms:             containing(q, kw.Symptoms),
		BodyParts:            containing(q, kw.BodyParts),
		Emotions:             containing(q, kw.Emotions),
		ConstitutionMentions: mentions,
		Planets:              containing(q, kb.PlanetNames()),
	}
}

func containing(q string, words []string) []string {
	out := []string{}
	for _, w := range words {
		if strings.Contains(q, w) {
			out = append(out, w)
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
