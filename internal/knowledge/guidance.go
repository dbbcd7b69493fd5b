package knowledge

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type ConstitutionAnalysis struct {
	Constitution             string            `json:"constitution"`
	Category                 string            `json:"category"`
	PrimaryQualities         []string          `json:"primary_qualities"`
	PhysicalTraits           map[string]string `json:"physical_traits"`
	MentalTraits             map[string]string `json:"mental_traits"`
	ImbalanceSigns           []string          `json:"imbalance_signs"`
	BalancingFoods           []string          `json:"balancing_foods"`
	LifestyleRecommendations []string          `json:"lifestyle_recommendations"`
	RecommendedHerbs         []string          `json:"recommended_herbs"`
	Characteristics          string            `json:"characteristics,omitempty"`
	BalancingApproach        string            `json:"balancing_approach,omitempty"`
	SeasonalCare             string            `json:"seasonal_care,omitempty"`
	Focus                    string            `json:"focus,omitempty"`
	SymptomAnalysis          *SymptomAnalysis  `json:"symptom_analysis,omitempty"`
}

type SymptomAnalysis struct {
	ConstitutionalCorrelation string   `json:"constitutional_correlation"`
	LikelyImbalances          []string `json:"likely_imbalances"`
	RecommendedApproach       []string `json:"recommended_approach"`
	ClinicalNotes             string   `json:"clinical_notes"`
}

// ConstitutionalAnalysis looks a profile up case-insensitively. Symptoms, when given, are
// matched against each dosha's imbalance signs.
func (kb *KB) ConstitutionalAnalysis(name string, symptoms []string) (ConstitutionAnalysis, error) {
	c, ok := kb.Constitution(name)
	if !ok {
		return ConstitutionAnalysis{}, fmt.Errorf("constitution %q: %w", name, ErrNotFound)
	}
	a := ConstitutionAnalysis{
		Constitution:             name,
		Category:                 c.Category,
		PrimaryQualities:         nonNil(c.PrimaryQualities),
		PhysicalTraits:           nonNilMap(c.PhysicalTraits),
		MentalTraits:             nonNilMap(c.MentalTraits),
		ImbalanceSigns:           nonNil(c.ImbalanceSigns),
		BalancingFoods:           nonNil(c.BalancingFoods),
		LifestyleRecommendations: nonNil(c.LifestyleRecommendations),
		RecommendedHerbs:         nonNil(c.Herbs),
		Characteristics:          c.Characteristics,
		BalancingApproach:        c.BalancingApproach,
		SeasonalCare:             c.SeasonalCare,
		Focus:                    c.Focus,
	}
	if len(symptoms) > 0 {
		sa := kb.AnalyzeSymptoms(name, symptoms)
		a.SymptomAnalysis = &sa
	}
	return a, nil
}

// AnalyzeSymptoms correlates symptoms with the dosha whose imbalance signs mention them.
// When nothing matches, the approach falls back to the doshas of the constitution itself.
func (kb *KB) AnalyzeSymptoms(constitution string, symptoms []string) SymptomAnalysis {
	sa := SymptomAnalysis{
		ConstitutionalCorrelation: "Analyzing symptoms in context of " + constitution,
		LikelyImbalances:          []string{},
		RecommendedApproach:       []string{},
		ClinicalNotes:             "Based on 44 years of clinical experience",
	}
	implicated := map[Dosha]bool{}
	for _, d := range Doshas {
		signs := kb.imbalanceSigns(d)
		proto, _ := kb.TherapeuticProtocol(d)
		for _, s := range symptoms {
			s = normalize(s)
			if s == "" || !matchesAny(s, signs) {
				continue
			}
			implicated[d] = true
			sa.LikelyImbalances = append(sa.LikelyImbalances, fmt.Sprintf("%s imbalance (%s): %s", d, proto.Name, s))
		}
	}
	focus := implicated
	if len(focus) == 0 {
		focus = map[Dosha]bool{}
		for _, d := range DoshasIn(constitution) {
			focus[d] = true
		}
	}
	for _, d := range Doshas {
		if !focus[d] {
			continue
		}
		if proto, ok := kb.TherapeuticProtocol(d); ok {
			sa.RecommendedApproach = append(sa.RecommendedApproach, proto.Treatment)
		}
	}
	return sa
}

func (kb *KB) imbalanceSigns(d Dosha) []string {
	var signs []string
	if c, ok := kb.doc.Constitutions[string(d)]; ok {
		signs = append(signs, c.ImbalanceSigns...)
	}
	if t, ok := kb.doc.Clinical.Tridosha[string(d)]; ok {
		signs = append(signs, t.ImbalanceSigns...)
	}
	if p, ok := kb.doc.Clinical.TherapeuticProtocols[string(d)]; ok {
		signs = append(signs, p.Signs...)
	}
	return signs
}

func matchesAny(symptom string, signs []string) bool {
	for _, sign := range signs {
		if strings.Contains(strings.ToLower(sign), symptom) {
			return true
		}
	}
	return false
}

// DoshasIn lists the doshas named in a constitution label in canonical order.
func DoshasIn(constitution string) []Dosha {
	c := normalize(constitution)
	var out []Dosha
	for _, d := range Doshas {
		if strings.Contains(c, string(d)) {
			out = append(out, d)
		}
	}
	return out
}

type PlanetGuidance struct {
	Planet
	ConstitutionalSpecific *PlanetConstitution `json:"constitutional_specific,omitempty"`
}

type PlanetConstitution struct {
	Interaction             string `json:"interaction"`
	SpecificRecommendations string `json:"specific_recommendations"`
	ClinicalExperience      string `json:"clinical_experience"`
}

func (kb *KB) PlanetaryGuidance(planet, constitution string) (PlanetGuidance, error) {
	p, ok := kb.Planet(planet)
	if !ok {
		return PlanetGuidance{}, fmt.Errorf("planet %q: %w", planet, ErrNotFound)
	}
	p.Name = planet
	g := PlanetGuidance{Planet: p}
	if constitution = strings.TrimSpace(constitution); constitution != "" {
		g.ConstitutionalSpecific = &PlanetConstitution{
			Interaction:             fmt.Sprintf("How %s affects %s constitution", planet, constitution),
			SpecificRecommendations: fmt.Sprintf("Tailored guidance for %s during %s periods", constitution, planet),
			ClinicalExperience:      "Dr. Helen's observations on this combination",
		}
	}
	return g, nil
}

type SeasonalGuidance struct {
	Season                   string   `json:"season"`
	DominantDosha            string   `json:"dominant_dosha"`
	GeneralGuidance          string   `json:"general_guidance"`
	ConstitutionalCare       string   `json:"constitutional_care"`
	FoodsToFavor             []string `json:"foods_to_favor"`
	FoodsToAvoid             []string `json:"foods_to_avoid"`
	LifestyleRecommendations []string `json:"lifestyle_recommendations"`
	SeasonalHerbs            []string `json:"seasonal_herbs"`
}

const generalCare = "General care applies"

func (kb *KB) SeasonalRecommendations(season, constitution string) (SeasonalGuidance, error) {
	s, ok := kb.Season(season)
	if !ok {
		return SeasonalGuidance{}, fmt.Errorf("season %q: %w", season, ErrNotFound)
	}
	care, ok := s.Care[normalize(constitution)]
	if !ok {
		care = generalCare
	}
	return SeasonalGuidance{
		Season:                   season,
		DominantDosha:            s.DominantDosha,
		GeneralGuidance:          s.GeneralGuidance,
		ConstitutionalCare:       care,
		FoodsToFavor:             s.FoodsToFavor,
		FoodsToAvoid:             s.FoodsToAvoid,
		LifestyleRecommendations: s.Lifestyle,
		SeasonalHerbs:            s.Herbs,
	}, nil
}

// SeasonAt maps the month of t to a season: Mar-May spring, Jun-Aug summer, Sep-Nov fall.
func SeasonAt(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "fall"
	default:
		return "winter"
	}
}

func (kb *KB) LifeStage(age int) LifeStage {
	for _, s := range kb.doc.LifeStages {
		if s.BelowAge == 0 || age < s.BelowAge {
			return s
		}
	}
	return kb.doc.LifeStages[len(kb.doc.LifeStages)-1]
}

// LifeStageName returns "unknown" when no positive age is on record.
func (kb *KB) LifeStageName(age *int) string {
	if age == nil || *age <= 0 {
		return "unknown"
	}
	return kb.LifeStage(*age).Name
}

const (
	ScriptWelcome            = "welcome"
	ScriptConstitutionResult = "constitution_result"
)

// AvatarScript renders the contextual script for ctx. Unknown contexts fall back to the
// welcome script; the resolved context name is returned alongside the text.
func (kb *KB) AvatarScript(ctx, constitution, season string) (string, string) {
	ctx = normalize(ctx)
	scripts := kb.doc.Avatar.Scripts
	if ctx == ScriptConstitutionResult && strings.TrimSpace(constitution) == "" {
		return scripts[ScriptConstitutionResult+"_unknown"], ctx
	}
	text, ok := scripts[ctx]
	if !ok || strings.HasSuffix(ctx, "_unknown") {
		return scripts[ScriptWelcome], ScriptWelcome
	}
	r := strings.NewReplacer("{constitution}", strings.TrimSpace(constitution), "{season}", strings.TrimSpace(season))
	return r.Replace(text), ctx
}

func (kb *KB) AvatarContexts() []string {
	var out []string
	for k := range kb.doc.Avatar.Scripts {
		if !strings.HasSuffix(k, "_unknown") {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// SpeakScript returns the short spoken clip for kind, defaulting to welcome.
func (kb *KB) SpeakScript(kind string) (string, string) {
	kind = normalize(kind)
	if text, ok := kb.doc.Avatar.Speak[kind]; ok {
		return text, kind
	}
	return kb.doc.Avatar.Speak[ScriptWelcome], ScriptWelcome
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
