package knowledge

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoads(t *testing.T) {
	kb, err := Default()
	require.NoError(t, err)

	qs := kb.Questions()
	require.Len(t, qs, 10)
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		require.Len(t, q.Options, 3, "question %d", q.ID)
		for j, o := range q.Options {
			// each option scores exactly one dosha, in vata/pitta/kapha order
			assert.Equal(t, 3, o.Weight(Doshas[j]), "question %d option %d", q.ID, j)
			assert.Equal(t, 3, o.Vata+o.Pitta+o.Kapha, "question %d option %d", q.ID, j)
		}
	}

	cat := kb.ConstitutionCatalog()
	assert.Equal(t, 13, cat.Total)
	assert.Len(t, cat.Constitutions, 13)
	assert.Len(t, cat.EnergeticPrinciples, 3)
	require.NotEmpty(t, cat.Groups)
	assert.Equal(t, "primary_doshas", cat.Groups[0].Category)
	assert.Equal(t, []string{"vata", "pitta", "kapha"}, cat.Groups[0].Constitutions)

	assert.Len(t, kb.PlanetNames(), 9)
}

func TestAccessorsReturnCopies(t *testing.T) {
	kb := MustDefault()

	qs := kb.Questions()
	qs[0].Options[0].Vata = 99
	q, ok := kb.Question(1)
	require.True(t, ok)
	assert.Equal(t, 3, q.Options[0].Vata)

	r := kb.Recommendations(Vata)
	r.Diet[0] = "changed"
	assert.Equal(t, "Warm, cooked foods", kb.Recommendations(Vata).Diet[0])

	c, ok := kb.Constitution("vata")
	require.True(t, ok)
	c.PhysicalTraits["skin"] = "changed"
	c2, _ := kb.Constitution("vata")
	assert.NotEqual(t, "changed", c2.PhysicalTraits["skin"])
}

func TestConstitutionalAnalysis(t *testing.T) {
	kb := MustDefault()

	a, err := kb.ConstitutionalAnalysis("VATA", nil)
	require.NoError(t, err)
	assert.Equal(t, "VATA", a.Constitution)
	assert.Contains(t, a.RecommendedHerbs, "Ashwagandha")
	assert.Nil(t, a.SymptomAnalysis)

	dual, err := kb.ConstitutionalAnalysis("pitta-kapha", nil)
	require.NoError(t, err)
	assert.Empty(t, dual.ImbalanceSigns)
	assert.NotEmpty(t, dual.BalancingApproach)

	_, err = kb.ConstitutionalAnalysis("fire-type", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConstitutionalAnalysisWithSymptoms(t *testing.T) {
	kb := MustDefault()

	a, err := kb.ConstitutionalAnalysis("pitta", []string{"anxiety", "acidity"})
	require.NoError(t, err)
	require.NotNil(t, a.SymptomAnalysis)
	sa := a.SymptomAnalysis
	assert.Equal(t, "Analyzing symptoms in context of pitta", sa.ConstitutionalCorrelation)
	assert.Contains(t, sa.LikelyImbalances, "vata imbalance (dryness): anxiety")
	assert.Contains(t, sa.LikelyImbalances, "pitta imbalance (heat): acidity")
	require.Len(t, sa.RecommendedApproach, 2)
	assert.True(t, strings.HasPrefix(sa.RecommendedApproach[0], "Remoisturizing"))

	// nothing recognised: fall back to the constitution's own doshas
	b, err := kb.ConstitutionalAnalysis("kapha", []string{"hiccups"})
	require.NoError(t, err)
	assert.Empty(t, b.SymptomAnalysis.LikelyImbalances)
	assert.Equal(t, []string{"Flushing with spices, light foods, vigorous exercise"}, b.SymptomAnalysis.RecommendedApproach)
}

func TestPlanetaryGuidance(t *testing.T) {
	kb := MustDefault()

	g, err := kb.PlanetaryGuidance("Saturn", "")
	require.NoError(t, err)
	assert.Equal(t, "Vata dosha", g.AyurvedicCorrelation)
	assert.Nil(t, g.ConstitutionalSpecific)

	g, err = kb.PlanetaryGuidance("moon", "kapha")
	require.NoError(t, err)
	require.NotNil(t, g.ConstitutionalSpecific)
	assert.Equal(t, "How moon affects kapha constitution", g.ConstitutionalSpecific.Interaction)

	_, err = kb.PlanetaryGuidance("pluto", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeasonalRecommendations(t *testing.T) {
	kb := MustDefault()

	tests := []struct {
		season       string
		constitution string
		wantCare     string
	}{
		{"fall", "vata", "Warm, oily foods, regular routine, oil massage"},
		{"Summer", "PITTA", "Cooling foods, avoid anger, moderate activity"},
		{"winter", "general", "General care applies"},
		{"spring", "vata-pitta", "General care applies"},
	}
	for _, tc := range tests {
		got, err := kb.SeasonalRecommendations(tc.season, tc.constitution)
		require.NoError(t, err)
		assert.Equal(t, tc.wantCare, got.ConstitutionalCare, "%s/%s", tc.season, tc.constitution)
	}

	w, _ := kb.SeasonalRecommendations("winter", "kapha")
	assert.Equal(t, "vata and kapha", w.DominantDosha)

	_, err := kb.SeasonalRecommendations("monsoon", "vata")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeasonAt(t *testing.T) {
	want := map[time.Month]string{
		time.January: "winter", time.February: "winter", time.March: "spring",
		time.April: "spring", time.May: "spring", time.June: "summer",
		time.July: "summer", time.August: "summer", time.September: "fall",
		time.October: "fall", time.November: "fall", time.December: "winter",
	}
	for m, s := range want {
		got := SeasonAt(time.Date(2024, m, 15, 0, 0, 0, 0, time.UTC))
		if got != s {
			t.Fatalf("SeasonAt(%s) got=%s want=%s", m, got, s)
		}
	}
}

func TestLifeStage(t *testing.T) {
	kb := MustDefault()
	age := func(n int) *int { return &n }

	tests := []struct {
		age  *int
		want string
	}{
		{nil, "unknown"},
		{age(0), "unknown"},
		{age(5), "childhood"},
		{age(15), "childhood"},
		{age(16), "youth"},
		{age(49), "youth"},
		{age(50), "maturity"},
		{age(90), "maturity"},
	}
	for _, tc := range tests {
		if got := kb.LifeStageName(tc.age); got != tc.want {
			t.Fatalf("LifeStageName(%v) got=%s want=%s", tc.age, got, tc.want)
		}
	}
}

func TestAvatarScript(t *testing.T) {
	kb := MustDefault()

	text, ctx := kb.AvatarScript("seasonal", "", "fall")
	assert.Equal(t, "seasonal", ctx)
	assert.Contains(t, text, "in fall season")

	text, _ = kb.AvatarScript("constitution_result", "vata-pitta", "")
	assert.Contains(t, text, "your constitution is vata-pitta")

	text, _ = kb.AvatarScript("constitution_result", "", "")
	assert.NotContains(t, text, "{constitution}")

	welcome, _ := kb.AvatarScript("welcome", "", "")
	text, ctx = kb.AvatarScript("no-such-context", "", "")
	assert.Equal(t, ScriptWelcome, ctx)
	assert.Equal(t, welcome, text)

	text, ctx = kb.SpeakScript("sleep")
	assert.Equal(t, "sleep", ctx)
	assert.Contains(t, text, "nutmeg")
	_, ctx = kb.SpeakScript("")
	assert.Equal(t, ScriptWelcome, ctx)
}

func TestMatchQueryTypes(t *testing.T) {
	kb := MustDefault()

	got := kb.MatchQueryTypes("what should i eat? any herbs for sleep advice")
	assert.Equal(t, []string{"dietary", "lifestyle", "herbs"}, got)
	assert.Empty(t, kb.MatchQueryTypes("hello"))
}

func TestMealTiming(t *testing.T) {
	kb := MustDefault()
	assert.Equal(t, "Regular meal times are crucial for vata constitution", kb.MealTiming("Vata-Kapha"))
	assert.Contains(t, kb.MealTiming("pitta"), "lunch")
	assert.Equal(t, "Regular meal timing supports all constitutions", kb.MealTiming(""))
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	_, err := Load(strings.NewReader("quiz: []\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("unknown_section: true\n"))
	assert.Error(t, err)
}
