package services

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
)

func newKnowledgeService() *knowledgeService {
	svc := NewKnowledgeService(knowledge.MustDefault()).(*knowledgeService)
	svc.now = fixedClock(october)
	return svc
}

func TestPausePoints(t *testing.T) {
	tests := []struct {
		text string
		want []int
	}{
		{"", []int{}},
		{"One sentence only.", []int{}},
		{"A. B. C", []int{3, 6}},
		{"Hello there. How are you. Fine", []int{13, 26}},
		{"Ça va. Très bien", []int{7}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, PausePoints(tc.text)); diff != "" {
			t.Fatalf("PausePoints(%q) mismatch (-want +got):\n%s", tc.text, diff)
		}
	}
}

func TestSpeakingScript(t *testing.T) {
	svc := newKnowledgeService()
	s := svc.SpeakingScript("Balance first. Then healing.", "")
	assert.Equal(t, "general", s.Context)
	assert.Equal(t, []int{15}, s.PausePoints)
	assert.Equal(t, "professional_warm", s.SpeakingStyle)
	assert.Equal(t, 0.75, s.VoiceSettings.Stability)
	assert.Contains(t, s.EmphasisWords, "dosha")
}

func TestKnowledgeLookupsNotFound(t *testing.T) {
	svc := newKnowledgeService()

	_, err := svc.ConstitutionalAnalysis("martian", nil)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
	_, err = svc.PlanetaryGuidance("pluto", "")
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
	_, err = svc.SeasonalRecommendations("monsoon", "")
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestKnowledgeLookups(t *testing.T) {
	svc := newKnowledgeService()

	a, err := svc.ConstitutionalAnalysis("Vata-Pitta", []string{"anxiety"})
	require.NoError(t, err)
	assert.Equal(t, "dual_constitutions", a.Category)
	assert.NotNil(t, a.SymptomAnalysis)

	p, err := svc.PlanetaryGuidance("Saturn", "kapha")
	require.NoError(t, err)
	require.NotNil(t, p.ConstitutionalSpecific)

	s, err := svc.SeasonalRecommendations("", "")
	require.NoError(t, err)
	assert.Equal(t, "fall", s.Season)
	assert.Equal(t, "General care applies", s.ConstitutionalCare)

	cur, err := svc.CurrentSeason("pitta")
	require.NoError(t, err)
	assert.Equal(t, "fall", cur.Season)
	assert.NotEqual(t, "General care applies", cur.Recommendations.ConstitutionalCare)

	assert.Equal(t, 13, svc.Catalog().Total)
}

func TestContextualAndSpeakScripts(t *testing.T) {
	svc := newKnowledgeService()

	unknown := svc.ContextualScript("does-not-exist", "", "")
	welcome := svc.ContextualScript("welcome", "", "")
	assert.Equal(t, "welcome", unknown.Context)
	assert.Equal(t, welcome.Script, unknown.Script)

	seasonal := svc.ContextualScript("seasonal", "", "")
	assert.Equal(t, "fall", seasonal.Season)
	assert.Contains(t, seasonal.Script, "fall season")

	result := svc.ContextualScript("constitution_result", "kapha", "")
	assert.Contains(t, result.Script, "your constitution is kapha")

	sleep := svc.SpeakScript("SLEEP")
	assert.Equal(t, "sleep", sleep.Type)
	assert.Contains(t, sleep.Script, "warm milk with nutmeg")
	assert.Equal(t, "welcome", svc.SpeakScript("unknown").Type)
}
