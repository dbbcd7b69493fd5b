package knowledge

import "strings"

type Dosha string

const (
	Vata  Dosha = "vata"
	Pitta Dosha = "pitta"
	Kapha Dosha = "kapha"
)

// Doshas is the canonical order; it is also the tie-break order for scoring.
var Doshas = [3]Dosha{Vata, Pitta, Kapha}

func ParseDosha(s string) (Dosha, bool) {
	d := Dosha(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Vata, Pitta, Kapha:
		return d, true
	default:
		return "", false
	}
}

type Persona struct {
	Name             string `yaml:"name" json:"name"`
	Authority        string `yaml:"authority" json:"authority"`
	Engine           string `yaml:"engine" json:"engine"`
	Disclaimer       string `yaml:"disclaimer" json:"disclaimer"`
	VoiceTestText    string `yaml:"voice_test_text" json:"voice_test_text"`
	VoiceDescription string `yaml:"voice_description" json:"voice_description"`
}

type Option struct {
	Text  string `yaml:"text" json:"text"`
	Vata  int    `yaml:"vata" json:"vata"`
	Pitta int    `yaml:"pitta" json:"pitta"`
	Kapha int    `yaml:"kapha" json:"kapha"`
}

func (o Option) Weight(d Dosha) int {
	switch d {
	case Vata:
		return o.Vata
	case Pitta:
		return o.Pitta
	case Kapha:
		return o.Kapha
	}
	return 0
}

type Question struct {
	ID       int      `yaml:"id" json:"id"`
	Category string   `yaml:"category" json:"category"`
	Question string   `yaml:"question" json:"question"`
	Options  []Option `yaml:"options" json:"options"`
}

type DoshaRecommendations struct {
	Diet      []string `yaml:"diet" json:"diet"`
	Lifestyle []string `yaml:"lifestyle" json:"lifestyle"`
	Herbs     []string `yaml:"herbs" json:"herbs"`
	Practices []string `yaml:"practices" json:"practices"`
}

// Constitution is one of the thirteen profiles. Single doshas carry the full trait set;
// dual, tri-dosha and predominant types carry the short descriptive fields.
type Constitution struct {
	Name                     string            `yaml:"-" json:"name"`
	Category                 string            `yaml:"category" json:"category"`
	PrimaryQualities         []string          `yaml:"primary_qualities" json:"primary_qualities,omitempty"`
	PhysicalTraits           map[string]string `yaml:"physical_traits" json:"physical_traits,omitempty"`
	MentalTraits             map[string]string `yaml:"mental_traits" json:"mental_traits,omitempty"`
	ImbalanceSigns           []string          `yaml:"imbalance_signs" json:"imbalance_signs,omitempty"`
	BalancingFoods           []string          `yaml:"balancing_foods" json:"balancing_foods,omitempty"`
	LifestyleRecommendations []string          `yaml:"lifestyle_recommendations" json:"lifestyle_recommendations,omitempty"`
	Herbs                    []string          `yaml:"herbs" json:"herbs,omitempty"`
	Characteristics          string            `yaml:"characteristics" json:"characteristics,omitempty"`
	BalancingApproach        string            `yaml:"balancing_approach" json:"balancing_approach,omitempty"`
	SeasonalCare             string            `yaml:"seasonal_care" json:"seasonal_care,omitempty"`
	Focus                    string            `yaml:"focus" json:"focus,omitempty"`
}

type EnergeticPrinciple struct {
	Name            string   `yaml:"-" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	SignsBalanced   []string `yaml:"signs_balanced" json:"signs_balanced"`
	SignsImbalanced []string `yaml:"signs_imbalanced" json:"signs_imbalanced"`
	Recommendations []string `yaml:"recommendations" json:"recommendations"`
}

type HealthInfluences struct {
	Positive string `yaml:"positive" json:"positive"`
	Negative string `yaml:"negative" json:"negative"`
}

type Planet struct {
	Name                 string           `yaml:"-" json:"planet"`
	AyurvedicCorrelation string           `yaml:"ayurvedic_correlation" json:"ayurvedic_correlation"`
	BodyParts            []string         `yaml:"body_parts" json:"body_parts_governed"`
	HealthInfluences     HealthInfluences `yaml:"health_influences" json:"health_influences"`
	ConstitutionalImpact string           `yaml:"constitutional_impact" json:"constitutional_impact"`
	RemedialMeasures     []string         `yaml:"remedial_measures" json:"remedial_measures"`
	DietaryGuidance      string           `yaml:"dietary_guidance" json:"dietary_guidance"`
}

type Season struct {
	Name            string            `yaml:"-" json:"season"`
	DominantDosha   string            `yaml:"dominant_dosha" json:"dominant_dosha"`
	GeneralGuidance string            `yaml:"general_guidance" json:"general_guidance"`
	Care            map[string]string `yaml:"care" json:"care"`
	FoodsToFavor    []string          `yaml:"foods_to_favor" json:"foods_to_favor"`
	FoodsToAvoid    []string          `yaml:"foods_to_avoid" json:"foods_to_avoid"`
	Lifestyle       []string          `yaml:"lifestyle" json:"lifestyle"`
	Herbs           []string          `yaml:"herbs" json:"herbs"`
}

// LifeStage applies to ages strictly below BelowAge; zero means no upper bound.
type LifeStage struct {
	Name            string `yaml:"name" json:"name"`
	BelowAge        int    `yaml:"below_age" json:"-"`
	AgeRange        string `yaml:"age_range" json:"age_range"`
	DominantDosha   string `yaml:"dominant_dosha" json:"dominant_dosha"`
	Characteristics string `yaml:"characteristics" json:"characteristics"`
	DietaryNeeds    string `yaml:"dietary_needs" json:"dietary_needs"`
	Lifestyle       string `yaml:"lifestyle" json:"lifestyle"`
	CommonIssues    string `yaml:"common_issues" json:"common_issues"`
	Herbs           string `yaml:"herbs" json:"herbs"`
}

type TreatmentProtocol struct {
	PrimaryTreatment string `yaml:"primary_treatment" json:"primary_treatment"`
	Herbs            string `yaml:"herbs" json:"herbs"`
	Lifestyle        string `yaml:"lifestyle" json:"lifestyle"`
	Duration         string `yaml:"duration" json:"duration"`
}

// TherapeuticProtocol is the dryness/heat/stagnation protocol a dosha imbalance calls for.
type TherapeuticProtocol struct {
	Name      string   `yaml:"name" json:"name"`
	Signs     []string `yaml:"signs" json:"signs"`
	Treatment string   `yaml:"treatment" json:"treatment"`
	Herbs     []string `yaml:"herbs" json:"herbs"`
	Lifestyle []string `yaml:"lifestyle" json:"lifestyle"`
}

type DoshaTheory struct {
	Elements       []string `yaml:"elements" json:"elements"`
	Functions      []string `yaml:"functions" json:"functions"`
	Locations      []string `yaml:"locations" json:"locations"`
	ImbalanceSigns []string `yaml:"imbalance_signs" json:"imbalance_signs"`
}

type Clinical struct {
	PulseDiagnosis       map[string]string              `yaml:"pulse_diagnosis"`
	TongueDiagnosis      map[string]string              `yaml:"tongue_diagnosis"`
	TreatmentProtocols   map[string]TreatmentProtocol   `yaml:"treatment_protocols"`
	TherapeuticProtocols map[string]TherapeuticProtocol `yaml:"therapeutic_protocols"`
	CorePrinciples       map[string]any                 `yaml:"core_principles"`
	HerbPreparation      map[string]string              `yaml:"herb_preparation"`
	HerbPrecautions      string                         `yaml:"herb_precautions"`
	Tridosha             map[string]DoshaTheory         `yaml:"tridosha"`
	MealTiming           map[string]string              `yaml:"meal_timing"`
	SymptomHerbs         map[string][]string            `yaml:"symptom_herbs"`
}

type PatternGroup struct {
	Type     string   `yaml:"type" json:"type"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

type Keywords struct {
	Symptoms              []string `yaml:"symptoms"`
	BodyParts             []string `yaml:"body_parts"`
	Emotions              []string `yaml:"emotions"`
	Herbs                 []string `yaml:"herbs"`
	RecommendationMarkers []string `yaml:"recommendation_markers"`
	LifestyleMarkers      []string `yaml:"lifestyle_markers"`
}

type Wisdom struct {
	Symptoms     string `yaml:"symptoms"`
	Constitution string `yaml:"constitution"`
	Closing      string `yaml:"closing"`
}

type FollowUps struct {
	Assessment      string `yaml:"assessment"`
	SymptomDuration string `yaml:"symptom_duration"`
	SymptomPatterns string `yaml:"symptom_patterns"`
	MealSchedule    string `yaml:"meal_schedule"`
	Goals           string `yaml:"goals"`
}

type Fallback struct {
	DietaryUnknown  string   `yaml:"dietary_unknown"`
	DietaryGeneric  string   `yaml:"dietary_generic"`
	Dietary         string   `yaml:"dietary"`
	Symptoms        string   `yaml:"symptoms"`
	Lifestyle       string   `yaml:"lifestyle"`
	EngineFailure   string   `yaml:"engine_failure"`
	General         string   `yaml:"general"`
	Recommendations []string `yaml:"recommendations"`
	Herbs           []string `yaml:"herbs"`
	LifestyleTips   []string `yaml:"lifestyle_tips"`
}

type Answers struct {
	Constitutional           string `yaml:"constitutional"`
	ConstitutionalUnknown    string `yaml:"constitutional_unknown"`
	AssessmentRecommendation string `yaml:"assessment_recommendation"`
	Symptoms                 string `yaml:"symptoms"`
	SymptomsConstitution     string `yaml:"symptoms_constitution"`
	Dietary                  string `yaml:"dietary"`
	Astrological             string `yaml:"astrological"`
	Seasonal                 string `yaml:"seasonal"`
	SeasonalGeneral          string `yaml:"seasonal_general"`
	Herbs                    string `yaml:"herbs"`
	General                  string `yaml:"general"`
}

type Sources struct {
	Engine         string   `yaml:"engine"`
	LLM            string   `yaml:"llm"`
	Fallback       string   `yaml:"fallback"`
	KnowledgeBases []string `yaml:"knowledge_bases"`
}

type VoiceSettings struct {
	Stability       float64 `yaml:"stability" json:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost" json:"similarity_boost"`
	Style           float64 `yaml:"style" json:"style"`
	UseSpeakerBoost bool    `yaml:"use_speaker_boost" json:"use_speaker_boost"`
}

type Avatar struct {
	VoiceSettings VoiceSettings     `yaml:"voice_settings"`
	SpeakingStyle string            `yaml:"speaking_style"`
	EmphasisWords []string          `yaml:"emphasis_words"`
	Scripts       map[string]string `yaml:"scripts"`
	Speak         map[string]string `yaml:"speak"`
}

// document mirrors knowledge.yaml.
type document struct {
	Persona             Persona                        `yaml:"persona"`
	Quiz                []Question                     `yaml:"quiz"`
	Recommendations     map[Dosha]DoshaRecommendations `yaml:"recommendations"`
	Constitutions       map[string]Constitution        `yaml:"constitutions"`
	EnergeticPrinciples map[string]EnergeticPrinciple  `yaml:"energetic_principles"`
	Planets             map[string]Planet              `yaml:"planets"`
	Seasons             map[string]Season              `yaml:"seasons"`
	LifeStages          []LifeStage                    `yaml:"life_stages"`
	Clinical            Clinical                       `yaml:"clinical"`
	QueryPatterns       []PatternGroup                 `yaml:"query_patterns"`
	Keywords            Keywords                       `yaml:"keywords"`
	Answers             Answers                        `yaml:"answers"`
	Sources             Sources                        `yaml:"sources"`
	Wisdom              Wisdom                         `yaml:"wisdom"`
	FollowUps           FollowUps                      `yaml:"follow_ups"`
	Fallback            Fallback                       `yaml:"fallback"`
	Avatar              Avatar                         `yaml:"avatar"`
}
