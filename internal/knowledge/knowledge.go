package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var embedded []byte

var ErrNotFound = errors.New("knowledge: not found")

// KB is the read-only knowledge base. It is built once and shared by every request;
// accessors hand out copies so callers cannot mutate it.
type KB struct {
	doc      document
	patterns []compiledGroup
}

type compiledGroup struct {
	kind string
	res  []*regexp.Regexp
}

var (
	defaultOnce sync.Once
	defaultKB   *KB
	defaultErr  error
)

// Default returns the knowledge base compiled into the binary.
func Default() (*KB, error) {
	defaultOnce.Do(func() {
		defaultKB, defaultErr = Load(bytes.NewReader(embedded))
	})
	return defaultKB, defaultErr
}

func MustDefault() *KB {
	kb, err := Default()
	if err != nil {
		panic(err)
	}
	return kb
}

func Load(r io.Reader) (*KB, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	for name, c := range doc.Constitutions {
		c.Name = name
		doc.Constitutions[name] = c
	}
	for name, p := range doc.EnergeticPrinciples {
		p.Name = name
		doc.EnergeticPrinciples[name] = p
	}
	for name, p := range doc.Planets {
		p.Name = name
		doc.Planets[name] = p
	}
	for name, s := range doc.Seasons {
		s.Name = name
		doc.Seasons[name] = s
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	kb := &KB{doc: doc}
	for _, g := range doc.QueryPatterns {
		cg := compiledGroup{kind: g.Type}
		for _, p := range g.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("query pattern %s %q: %w", g.Type, p, err)
			}
			cg.res = append(cg.res, re)
		}
		kb.patterns = append(kb.patterns, cg)
	}
	return kb, nil
}

func validate(doc document) error {
	if len(doc.Quiz) == 0 {
		return errors.New("knowledge base: quiz is empty")
	}
	seen := map[int]bool{}
	for _, q := range doc.Quiz {
		if seen[q.ID] {
			return fmt.Errorf("knowledge base: duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
		if len(q.Options) == 0 {
			return fmt.Errorf("knowledge base: question %d has no options", q.ID)
		}
		for i, o := range q.Options {
			if o.Vata < 0 || o.Pitta < 0 || o.Kapha < 0 {
				return fmt.Errorf("knowledge base: question %d option %d has a negative weight", q.ID, i)
			}
		}
	}
	for _, d := range Doshas {
		if _, ok := doc.Recommendations[d]; !ok {
			return fmt.Errorf("knowledge base: no recommendations for %s", d)
		}
		if _, ok := doc.Constitutions[string(d)]; !ok {
			return fmt.Errorf("knowledge base: no constitution profile for %s", d)
		}
	}
	for _, s := range []string{"spring", "summer", "fall", "winter"} {
		if _, ok := doc.Seasons[s]; !ok {
			return fmt.Errorf("knowledge base: missing season %s", s)
		}
	}
	if len(doc.LifeStages) == 0 || doc.LifeStages[len(doc.LifeStages)-1].BelowAge != 0 {
		return errors.New("knowledge base: life stages must end with an open-ended stage")
	}
	if _, ok := doc.Avatar.Scripts["welcome"]; !ok {
		return errors.New("knowledge base: avatar welcome script missing")
	}
	return nil
}

func (kb *KB) Persona() Persona { return kb.doc.Persona }

func (kb *KB) Questions() []Question {
	out := make([]Question, len(kb.doc.Quiz))
	for i, q := range kb.doc.Quiz {
		out[i] = cloneQuestion(q)
	}
	return out
}

func (kb *KB) Question(id int) (Question, bool) {
	for _, q := range kb.doc.Quiz {
		if q.ID == id {
			return cloneQuestion(q), true
		}
	}
	return Question{}, false
}

func cloneQuestion(q Question) Question {
	q.Options = slices.Clone(q.Options)
	return q
}

func (kb *KB) Recommendations(d Dosha) DoshaRecommendations {
	r := kb.doc.Recommendations[d]
	return DoshaRecommendations{
		Diet:      slices.Clone(r.Diet),
		Lifestyle: slices.Clone(r.Lifestyle),
		Herbs:     slices.Clone(r.Herbs),
		Practices: slices.Clone(r.Practices),
	}
}

func (kb *KB) Constitution(name string) (Constitution, bool) {
	c, ok := kb.doc.Constitutions[normalize(name)]
	if !ok {
		return Constitution{}, false
	}
	return cloneConstitution(c), true
}

func cloneConstitution(c Constitution) Constitution {
	c.PrimaryQualities = slices.Clone(c.PrimaryQualities)
	c.PhysicalTraits = maps.Clone(c.PhysicalTraits)
	c.MentalTraits = maps.Clone(c.MentalTraits)
	c.ImbalanceSigns = slices.Clone(c.ImbalanceSigns)
	c.BalancingFoods = slices.Clone(c.BalancingFoods)
	c.LifestyleRecommendations = slices.Clone(c.LifestyleRecommendations)
	c.Herbs = slices.Clone(c.Herbs)
	return c
}

func (kb *KB) Planet(name string) (Planet, bool) {
	p, ok := kb.doc.Planets[normalize(name)]
	if !ok {
		return Planet{}, false
	}
	p.BodyParts = slices.Clone(p.BodyParts)
	p.RemedialMeasures = slices.Clone(p.RemedialMeasures)
	return p, true
}

// PlanetNames returns the planets in their traditional order.
func (kb *KB) PlanetNames() []string {
	order := []string{"sun", "moon", "mars", "mercury", "jupiter", "venus", "saturn", "rahu", "ketu"}
	out := make([]string, 0, len(kb.doc.Planets))
	for _, n := range order {
		if _, ok := kb.doc.Planets[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

func (kb *KB) Season(name string) (Season, bool) {
	s, ok := kb.doc.Seasons[normalize(name)]
	if !ok {
		return Season{}, false
	}
	s.Care = maps.Clone(s.Care)
	s.FoodsToFavor = slices.Clone(s.FoodsToFavor)
	s.FoodsToAvoid = slices.Clone(s.FoodsToAvoid)
	s.Lifestyle = slices.Clone(s.Lifestyle)
	s.Herbs = slices.Clone(s.Herbs)
	return s, true
}

func (kb *KB) EnergeticPrinciples() []EnergeticPrinciple {
	names := slices.Sorted(maps.Keys(kb.doc.EnergeticPrinciples))
	out := make([]EnergeticPrinciple, 0, len(names))
	for _, n := range names {
		p := kb.doc.EnergeticPrinciples[n]
		p.SignsBalanced = slices.Clone(p.SignsBalanced)
		p.SignsImbalanced = slices.Clone(p.SignsImbalanced)
		p.Recommendations = slices.Clone(p.Recommendations)
		out = append(out, p)
	}
	return out
}

func (kb *KB) PulseDiagnosis(d Dosha) string  { return kb.doc.Clinical.PulseDiagnosis[string(d)] }
func (kb *KB) TongueDiagnosis(d Dosha) string { return kb.doc.Clinical.TongueDiagnosis[string(d)] }

func (kb *KB) TreatmentProtocol(d Dosha) (TreatmentProtocol, bool) {
	p, ok := kb.doc.Clinical.TreatmentProtocols[string(d)]
	return p, ok
}

// TherapeuticProtocol maps vata to dryness, pitta to heat and kapha to stagnation.
func (kb *KB) TherapeuticProtocol(d Dosha) (TherapeuticProtocol, bool) {
	p, ok := kb.doc.Clinical.TherapeuticProtocols[string(d)]
	if !ok {
		return TherapeuticProtocol{}, false
	}
	p.Signs = slices.Clone(p.Signs)
	p.Herbs = slices.Clone(p.Herbs)
	p.Lifestyle = slices.Clone(p.Lifestyle)
	return p, true
}

func (kb *KB) Tridosha() map[string]DoshaTheory {
	out := make(map[string]DoshaTheory, len(kb.doc.Clinical.Tridosha))
	for k, v := range kb.doc.Clinical.Tridosha {
		out[k] = DoshaTheory{
			Elements:       slices.Clone(v.Elements),
			Functions:      slices.Clone(v.Functions),
			Locations:      slices.Clone(v.Locations),
			ImbalanceSigns: slices.Clone(v.ImbalanceSigns),
		}
	}
	return out
}

// CorePrinciples is a nested document; it is returned as-is and must be treated as read-only.
func (kb *KB) CorePrinciples() map[string]any { return kb.doc.Clinical.CorePrinciples }

func (kb *KB) HerbPreparation() map[string]string { return maps.Clone(kb.doc.Clinical.HerbPreparation) }
func (kb *KB) HerbPrecautions() string             { return kb.doc.Clinical.HerbPrecautions }

// MealTiming picks the advice for the first dosha named in constitution, checked in
// canonical order.
func (kb *KB) MealTiming(constitution string) string {
	c := normalize(constitution)
	if c != "" {
		for _, d := range Doshas {
			if strings.Contains(c, string(d)) {
				return kb.doc.Clinical.MealTiming[string(d)]
			}
		}
	}
	return kb.doc.Clinical.MealTiming["default"]
}

func (kb *KB) SymptomHerbs(symptom string) []string {
	return slices.Clone(kb.doc.Clinical.SymptomHerbs[normalize(symptom)])
}

// MatchQueryTypes returns every query type with at least one matching pattern, in table order.
func (kb *KB) MatchQueryTypes(lowerQuery string) []string {
	var out []string
	for _, g := range kb.patterns {
		for _, re := range g.res {
			if re.MatchString(lowerQuery) {
				out = append(out, g.kind)
				break
			}
		}
	}
	return out
}

func (kb *KB) QueryPatterns() []PatternGroup {
	out := make([]PatternGroup, len(kb.doc.QueryPatterns))
	for i, g := range kb.doc.QueryPatterns {
		out[i] = PatternGroup{Type: g.Type, Patterns: slices.Clone(g.Patterns)}
	}
	return out
}

func (kb *KB) Keywords() Keywords {
	k := kb.doc.Keywords
	return Keywords{
		Symptoms:              slices.Clone(k.Symptoms),
		BodyParts:             slices.Clone(k.BodyParts),
		Emotions:              slices.Clone(k.Emotions),
		Herbs:                 slices.Clone(k.Herbs),
		RecommendationMarkers: slices.Clone(k.RecommendationMarkers),
		LifestyleMarkers:      slices.Clone(k.LifestyleMarkers),
	}
}

func (kb *KB) Wisdom() Wisdom       { return kb.doc.Wisdom }
func (kb *KB) FollowUps() FollowUps { return kb.doc.FollowUps }
func (kb *KB) Answers() Answers     { return kb.doc.Answers }

func (kb *KB) Sources() Sources {
	s := kb.doc.Sources
	s.KnowledgeBases = slices.Clone(s.KnowledgeBases)
	return s
}

func (kb *KB) Fallback() Fallback {
	f := kb.doc.Fallback
	f.Recommendations = slices.Clone(f.Recommendations)
	f.Herbs = slices.Clone(f.Herbs)
	f.LifestyleTips = slices.Clone(f.LifestyleTips)
	return f
}

func (kb *KB) VoiceSettings() VoiceSettings { return kb.doc.Avatar.VoiceSettings }
func (kb *KB) SpeakingStyle() string        { return kb.doc.Avatar.SpeakingStyle }
func (kb *KB) EmphasisWords() []string      { return slices.Clone(kb.doc.Avatar.EmphasisWords) }

// CatalogGroup lists constitution names sharing a category.
type CatalogGroup struct {
	Category      string   `json:"category"`
	Constitutions []string `json:"constitutions"`
}

type Catalog struct {
	Total               int                  `json:"total"`
	Groups              []CatalogGroup       `json:"groups"`
	Constitutions       []Constitution       `json:"constitutions"`
	EnergeticPrinciples []EnergeticPrinciple `json:"energetic_principles"`
}

var categoryOrder = []string{"primary_doshas", "dual_constitutions", "tri_dosha", "predominant"}

func (kb *KB) ConstitutionCatalog() Catalog {
	byCat := map[string][]string{}
	for name, c := range kb.doc.Constitutions {
		byCat[c.Category] = append(byCat[c.Category], name)
	}
	cat := Catalog{Total: len(kb.doc.Constitutions), EnergeticPrinciples: kb.EnergeticPrinciples()}
	for _, c := range orderedCategories(byCat) {
		names := byCat[c]
		sort.Slice(names, func(i, j int) bool { return constitutionLess(names[i], names[j]) })
		cat.Groups = append(cat.Groups, CatalogGroup{Category: c, Constitutions: names})
		for _, n := range names {
			cat.Constitutions = append(cat.Constitutions, cloneConstitution(kb.doc.Constitutions[n]))
		}
	}
	return cat
}

func orderedCategories(byCat map[string][]string) []string {
	out := make([]string, 0, len(byCat))
	for _, c := range categoryOrder {
		if _, ok := byCat[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range byCat {
		if !slices.Contains(categoryOrder, c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// constitutionLess orders names by their leading dosha (vata, pitta, kapha) and then by length.
func constitutionLess(a, b string) bool {
	ra, rb := doshaRank(a), doshaRank(b)
	if ra != rb {
		return ra < rb
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func doshaRank(name string) int {
	head, _, _ := strings.Cut(name, "-")
	for i, d := range Doshas {
		if head == string(d) {
			return i
		}
	}
	return len(Doshas)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
