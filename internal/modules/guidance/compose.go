package guidance

import (
	"strings"
	"time"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
)

// Context is what we know about the asker when composing an answer.
type Context struct {
	Constitution string `json:"constitution,omitempty"`
	Age          *int   `json:"age,omitempty"`
	Season       string `json:"season"`
	LifeStage    string `json:"life_stage"`
}

const maxFollowUps = 3

// Answer is the single response shape for the rule engine, the LLM path and the fallback.
type Answer struct {
	Answer                   string                              `json:"answer"`
	Source                   string                              `json:"source"`
	System                   string                              `json:"system,omitempty"`
	KnowledgeBases           []string                            `json:"knowledge_bases,omitempty"`
	ConstitutionSpecific     bool                                `json:"constitution_specific"`
	Personalized             bool                                `json:"personalized"`
	ClinicalAuthority        string                              `json:"clinical_authority"`
	QueryTypes               []string                            `json:"query_types,omitempty"`
	ConstitutionalGuidance   *knowledge.ConstitutionAnalysis     `json:"constitutional_guidance,omitempty"`
	AssessmentRecommendation string                              `json:"assessment_recommendation,omitempty"`
	SymptomAnalysis          *knowledge.SymptomAnalysis          `json:"symptom_analysis,omitempty"`
	DietaryGuidance          []string                            `json:"dietary_guidance,omitempty"`
	FoodsToAvoid             []string                            `json:"foods_to_avoid,omitempty"`
	MealTiming               string                              `json:"meal_timing,omitempty"`
	AstrologicalInsights     map[string]knowledge.PlanetGuidance `json:"astrological_insights,omitempty"`
	RemedialMeasures         []string                            `json:"remedial_measures,omitempty"`
	SeasonalRecommendations  *knowledge.SeasonalGuidance         `json:"seasonal_recommendations,omitempty"`
	SeasonalHerbs            []string                            `json:"seasonal_herbs,omitempty"`
	HerbsSupplements         []string                            `json:"herbs_supplements"`
	PreparationMethods       map[string]string                   `json:"preparation_methods,omitempty"`
	Precautions              string                              `json:"precautions,omitempty"`
	Recommendations          []string                            `json:"recommendations"`
	LifestyleTips            []string                            `json:"lifestyle_tips"`
	ClinicalWisdom           string                              `json:"clinical_wisdom,omitempty"`
	FollowUpQuestions        []string                            `json:"follow_up_questions,omitempty"`
	ConfidenceLevel          string                              `json:"confidence_level,omitempty"`
	Timestamp                *time.Time                          `json:"timestamp,omitempty"`
	Warning                  string                              `json:"warning"`
	Error                    string                              `json:"error,omitempty"`
}

func newAnswer(kb *knowledge.KB, source string, ctx Context) Answer {
	p := kb.Persona()
	return Answer{
		Source:               source,
		System:               p.Engine,
		ConstitutionSpecific: ctx.Constitution != "",
		Personalized:         true,
		ClinicalAuthority:    p.Authority,
		HerbsSupplements:     []string{},
		Recommendations:      []string{},
		LifestyleTips:        []string{},
		Warning:              p.Disclaimer,
	}
}

// Compose runs the rule engine. Each matching handler contributes its sections; when several
// handlers match, the answer text of the last one (in handler order) wins.
func Compose(kb *knowledge.KB, query string, a Analysis, ctx Context) Answer {
	ans := newAnswer(kb, kb.Sources().Engine, ctx)
	ans.QueryTypes = a.QueryTypes
	ans.ConfidenceLevel = "high"
	ans.Personalized = ctx.Constitution != ""

	texts := kb.Answers()
	fill := func(tmpl string) string {
		return strings.NewReplacer(
			"{constitution}", ctx.Constitution,
			"{season}", ctx.Season,
			"{query}", query,
		).Replace(tmpl)
	}

	if a.Is(TypeConstitutional) {
		if guide, ok := constitutional(kb, ctx.Constitution, a.Symptoms); ok {
			ans.Answer = fill(texts.Constitutional)
			ans.ConstitutionalGuidance = &guide
		} else {
			ans.Answer = texts.ConstitutionalUnknown
			ans.AssessmentRecommendation = texts.AssessmentRecommendation
		}
	}

	if a.Is(TypeSymptoms) {
		ans.Answer = texts.Symptoms
		if ctx.Constitution != "" && len(a.Symptoms) > 0 {
			sa := kb.AnalyzeSymptoms(ctx.Constitution, a.Symptoms)
			ans.SymptomAnalysis = &sa
			ans.Answer = fill(texts.SymptomsConstitution)
		}
	}

	if a.Is(TypeDietary) {
		ans.Answer = texts.Dietary
		var diet []string
		if c, ok := kb.Constitution(ctx.Constitution); ok {
			diet = append(diet, c.BalancingFoods...)
		}
		if sg, err := kb.SeasonalRecommendations(ctx.Season, constitutionOr(ctx, "general")); err == nil {
			diet = append(diet, sg.FoodsToFavor...)
			ans.FoodsToAvoid = sg.FoodsToAvoid
		}
		ans.DietaryGuidance = orEmpty(diet)
		ans.MealTiming = kb.MealTiming(ctx.Constitution)
	}

	if a.Is(TypeAstrological) {
		ans.Answer = texts.Astrological
		ans.AstrologicalInsights = map[string]knowledge.PlanetGuidance{}
		var measures []string
		for _, p := range a.Planets {
			g, err := kb.PlanetaryGuidance(p, ctx.Constitution)
			if err != nil {
				continue
			}
			ans.AstrologicalInsights[p] = g
			measures = append(measures, g.RemedialMeasures...)
		}
		ans.RemedialMeasures = dedupe(measures)
	}

	if a.Is(TypeSeasonal) {
		if ctx.Constitution != "" {
			if sg, err := kb.SeasonalRecommendations(ctx.Season, ctx.Constitution); err == nil {
				ans.Answer = fill(texts.Seasonal)
				ans.SeasonalRecommendations = &sg
				ans.SeasonalHerbs = sg.SeasonalHerbs
			}
		} else {
			ans.Answer = texts.SeasonalGeneral
			if sg, err := kb.SeasonalRecommendations(ctx.Season, "general"); err == nil {
				ans.SeasonalRecommendations = &sg
			}
		}
	}

	if a.Is(TypeLifestyle) {
		var tips []string
		if c, ok := kb.Constitution(ctx.Constitution); ok {
			tips = append(tips, c.LifestyleRecommendations...)
		}
		if s, ok := kb.Season(ctx.Season); ok {
			tips = append(tips, s.Lifestyle...)
		}
		ans.LifestyleTips = orEmpty(dedupe(tips))
	}

	if a.Is(TypeHerbs) {
		ans.Answer = texts.Herbs
		var herbs []string
		if c, ok := kb.Constitution(ctx.Constitution); ok {
			herbs = append(herbs, c.Herbs...)
		}
		for _, s := range a.Symptoms {
			herbs = append(herbs, kb.SymptomHerbs(s)...)
		}
		ans.HerbsSupplements = orEmpty(dedupe(herbs))
		ans.PreparationMethods = kb.HerbPreparation()
		ans.Precautions = kb.HerbPrecautions()
	}

	ans.ClinicalWisdom = clinicalWisdom(kb, a, ctx)
	ans.FollowUpQuestions = followUps(kb, a, ctx)
	if ans.Answer == "" {
		ans.Answer = fill(texts.General)
	}
	return ans
}

func constitutional(kb *knowledge.KB, constitution string, symptoms []string) (knowledge.ConstitutionAnalysis, bool) {
	if constitution == "" {
		return knowledge.ConstitutionAnalysis{}, false
	}
	g, err := kb.ConstitutionalAnalysis(constitution, symptoms)
	return g, err == nil
}

func clinicalWisdom(kb *knowledge.KB, a Analysis, ctx Context) string {
	w := kb.Wisdom()
	var points []string
	if a.Is(TypeSymptoms) {
		points = append(points, w.Symptoms)
	}
	if ctx.Constitution != "" {
		points = append(points, strings.ReplaceAll(w.Constitution, "{constitution}", ctx.Constitution))
	}
	points = append(points, w.Closing)
	return strings.Join(points, " ")
}

func followUps(kb *knowledge.KB, a Analysis, ctx Context) []string {
	f := kb.FollowUps()
	var qs []string
	if ctx.Constitution == "" {
		qs = append(qs, f.Assessment)
	}
	if a.Is(TypeSymptoms) {
		qs = append(qs, f.SymptomDuration, f.SymptomPatterns)
	}
	if a.Is(TypeDietary) {
		qs = append(qs, f.MealSchedule)
	}
	qs = append(qs, f.Goals)
	if len(qs) > maxFollowUps {
		qs = qs[:maxFollowUps]
	}
	return qs
}

func constitutionOr(ctx Context, def string) string {
	if ctx.Constitution == "" {
		return def
	}
	return ctx.Constitution
}

// dedupe keeps the first occurrence of each entry.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
