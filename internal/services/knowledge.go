package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
)

const defaultSeasonalConstitution = "general"

type SpeakingScript struct {
	Text          string                  `json:"text"`
	Context       string                  `json:"context"`
	VoiceSettings knowledge.VoiceSettings `json:"voice_settings"`
	SpeakingStyle string                  `json:"speaking_style"`
	PausePoints   []int                   `json:"pause_points"`
	EmphasisWords []string                `json:"emphasis_words"`
}

type AvatarScript struct {
	Script       string `json:"script"`
	Context      string `json:"context"`
	Constitution string `json:"constitution,omitempty"`
	Season       string `json:"season"`
}

type SpeakScript struct {
	Script string `json:"script"`
	Type   string `json:"type"`
}

type CurrentSeason struct {
	Season          string                     `json:"season"`
	Recommendations knowledge.SeasonalGuidance `json:"recommendations"`
}

// KnowledgeService serves read-only lookups over the knowledge base.
type KnowledgeService interface {
	ConstitutionalAnalysis(constitution string, symptoms []string) (*knowledge.ConstitutionAnalysis, error)
	PlanetaryGuidance(planet, constitution string) (*knowledge.PlanetGuidance, error)
	SeasonalRecommendations(season, constitution string) (*knowledge.SeasonalGuidance, error)
	CurrentSeason(constitution string) (*CurrentSeason, error)
	Catalog() knowledge.Catalog
	SpeakingScript(text, context string) SpeakingScript
	ContextualScript(context, constitution, season string) AvatarScript
	SpeakScript(kind string) SpeakScript
}

type knowledgeService struct {
	kb  *knowledge.KB
	now func() time.Time
}

func NewKnowledgeService(kb *knowledge.KB) KnowledgeService {
	return &knowledgeService{kb: kb, now: time.Now}
}

func notFound(err error, msg string) error {
	if errors.Is(err, knowledge.ErrNotFound) {
		return apierr.NotFound("not_found", msg)
	}
	return err
}

func (s *knowledgeService) ConstitutionalAnalysis(constitution string, symptoms []string) (*knowledge.ConstitutionAnalysis, error) {
	a, err := s.kb.ConstitutionalAnalysis(strings.TrimSpace(constitution), symptoms)
	if err != nil {
		return nil, notFound(err, "Constitution '"+constitution+"' not found")
	}
	return &a, nil
}

func (s *knowledgeService) PlanetaryGuidance(planet, constitution string) (*knowledge.PlanetGuidance, error) {
	g, err := s.kb.PlanetaryGuidance(strings.ToLower(strings.TrimSpace(planet)), constitution)
	if err != nil {
		return nil, notFound(err, "Planet '"+planet+"' not found")
	}
	return &g, nil
}

// SeasonalRecommendations defaults to the current season and the general constitution.
func (s *knowledgeService) SeasonalRecommendations(season, constitution string) (*knowledge.SeasonalGuidance, error) {
	season = strings.ToLower(strings.TrimSpace(season))
	if season == "" {
		season = knowledge.SeasonAt(s.now())
	}
	if strings.TrimSpace(constitution) == "" {
		constitution = defaultSeasonalConstitution
	}
	g, err := s.kb.SeasonalRecommendations(season, constitution)
	if err != nil {
		return nil, notFound(err, "Season '"+season+"' not found")
	}
	return &g, nil
}

func (s *knowledgeService) CurrentSeason(constitution string) (*CurrentSeason, error) {
	season := knowledge.SeasonAt(s.now())
	g, err := s.SeasonalRecommendations(season, constitution)
	if err != nil {
		return nil, err
	}
	return &CurrentSeason{Season: season, Recommendations: *g}, nil
}

func (s *knowledgeService) Catalog() knowledge.Catalog {
	return s.kb.ConstitutionCatalog()
}

func (s *knowledgeService) SpeakingScript(text, context string) SpeakingScript {
	if strings.TrimSpace(context) == "" {
		context = "general"
	}
	return SpeakingScript{
		Text:          text,
		Context:       context,
		VoiceSettings: s.kb.VoiceSettings(),
		SpeakingStyle: s.kb.SpeakingStyle(),
		PausePoints:   PausePoints(text),
		EmphasisWords: s.kb.EmphasisWords(),
	}
}

// PausePoints returns the character offset just past each ". " separator, skipping the last
// sentence. Offsets count characters, not bytes.
func PausePoints(text string) []int {
	sentences := strings.Split(text, ". ")
	out := make([]int, 0, len(sentences))
	offset := 0
	for i, sentence := range sentences[:len(sentences)-1] {
		offset += utf8.RuneCountInString(sentence)
		if i > 0 {
			offset += 2
		}
		out = append(out, offset+2)
	}
	return out
}

func (s *knowledgeService) ContextualScript(context, constitution, season string) AvatarScript {
	if strings.TrimSpace(season) == "" {
		season = knowledge.SeasonAt(s.now())
	}
	text, resolved := s.kb.AvatarScript(context, constitution, season)
	return AvatarScript{
		Script:       text,
		Context:      resolved,
		Constitution: strings.TrimSpace(constitution),
		Season:       season,
	}
}

func (s *knowledgeService) SpeakScript(kind string) SpeakScript {
	text, resolved := s.kb.SpeakScript(kind)
	return SpeakScript{Script: text, Type: resolved}
}
