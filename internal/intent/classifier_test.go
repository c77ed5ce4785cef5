package intent

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"voicewell/internal/domain"
)

func TestClassifyTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want domain.Intent
	}{
		{"show my vitals", domain.IntentVitals},
		{"Vital signs", domain.IntentVitals},
		{"stop", domain.IntentStop},
		{"  Stop Listening  ", domain.IntentStop},
		{"that's all", domain.IntentStop},
		{"blah blah nothing", domain.IntentUnrecognized},
		{"", domain.IntentUnrecognized},
		{"   ", domain.IntentUnrecognized},
		{"open the dashboard", domain.IntentDashboard},
		{"show my health", domain.IntentDashboard},
		{"risk assessment", domain.IntentRiskAssessment},
		{"show assessment", domain.IntentRiskAssessment},
		{"show claims", domain.IntentClaims},
		{"any claim updates", domain.IntentClaims},
		{"health prediction", domain.IntentHealthPrediction},
		{"goals", domain.IntentGoals},
		{"wellness", domain.IntentWellness},
		{"which programs am i in", domain.IntentWellness},
		{"my medicine", domain.IntentMedication},
		{"pills", domain.IntentMedication},
		{"call my doctor", domain.IntentProvider},
		{"care team", domain.IntentProvider},
		{"physician", domain.IntentProvider},
		{"insurance coverage", domain.IntentBenefits},
		{"insights", domain.IntentInsights},
		{"back to top", domain.IntentBackToTop},
		{"scroll to top", domain.IntentBackToTop},
		{"next appointment", domain.IntentCareTeam},
		{"schedule", domain.IntentCareTeam},
		{"fitness", domain.IntentFitness},
		{"exercise progress", domain.IntentFitness},
		{"analytics", domain.IntentTrends},
		{"data analysis", domain.IntentTrends},
		{"sleep quality", domain.IntentSleep},
		{"stress levels", domain.IntentStress},
	}

	classifier := NewClassifier()
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, classifier.Classify(tc.text))
		})
	}
}

func TestClassifyOverlapsResolveByOrder(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier()
	cases := map[string]domain.Intent{
		// dashboard precedes goals
		"show my health goals": domain.IntentDashboard,
		// goals precedes fitness
		"fitness goals": domain.IntentGoals,
		// insights precedes trends
		"trends": domain.IntentInsights,
		// provider precedes care-team
		"care team appointment": domain.IntentProvider,
		// dashboard precedes health-prediction
		"predict my health": domain.IntentDashboard,
		// claims precedes vitals
		"claims and vitals": domain.IntentClaims,
	}
	for text, want := range cases {
		assert.Equal(t, want, classifier.Classify(text), text)
	}
}

func TestStopShortCircuitsEveryOtherRule(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier()
	phrases := []string{
		"show my vitals", "claims", "dashboard", "insights and trends",
		"sleep", "back to top", "blah", "",
	}
	stops := []string{"stop", "STOP", "Stop listening", "that's all"}

	for _, phrase := range phrases {
		for _, stop := range stops {
			assert.Equal(t, domain.IntentStop, classifier.Classify(phrase+" "+stop))
			assert.Equal(t, domain.IntentStop, classifier.Classify(stop+" "+phrase))
		}
	}
}

func TestInsightsAlwaysBeatsTrends(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier()
	for _, text := range []string{
		"insights and trends",
		"trends insights",
		"Trends, analytics and insights",
		"my insights trends",
	} {
		assert.Equal(t, domain.IntentInsights, classifier.Classify(text), text)
	}
}

func TestConfidenceIsNotAnInput(t *testing.T) {
	t.Parallel()

	// Classification is a function of text alone; identical text yields
	// identical intents across calls.
	classifier := NewClassifier()
	first := classifier.Classify("show my vitals")
	for range 10 {
		assert.Equal(t, first, classifier.Classify("show my vitals"))
	}
}

func TestDefaultOrder(t *testing.T) {
	t.Parallel()

	want := []domain.Intent{
		domain.IntentStop,
		domain.IntentDashboard,
		domain.IntentRiskAssessment,
		domain.IntentClaims,
		domain.IntentVitals,
		domain.IntentHealthPrediction,
		domain.IntentGoals,
		domain.IntentWellness,
		domain.IntentMedication,
		domain.IntentProvider,
		domain.IntentBenefits,
		domain.IntentInsights,
		domain.IntentBackToTop,
		domain.IntentCareTeam,
		domain.IntentFitness,
		domain.IntentTrends,
		domain.IntentSleep,
		domain.IntentStress,
	}
	if diff := cmp.Diff(want, NewClassifier().Order()); diff != "" {
		t.Fatalf("rule order mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomRulesAreEvaluatedInGivenOrder(t *testing.T) {
	t.Parallel()

	classifier := NewClassifierWithRules([]Rule{
		{domain.IntentSleep, func(s string) bool { return strings.Contains(s, "night") }},
		{domain.IntentStop, func(s string) bool { return strings.Contains(s, "night") }},
	})
	assert.Equal(t, domain.IntentSleep, classifier.Classify("Good NIGHT"))
	assert.Equal(t, domain.IntentUnrecognized, classifier.Classify("stop"))
}
