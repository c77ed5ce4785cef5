package intent

import (
	"strings"

	"voicewell/internal/domain"
)

func anyOf(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func allOf(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if !strings.Contains(s, w) {
				return false
			}
		}
		return true
	}
}

func either(preds ...func(string) bool) func(string) bool {
	return func(s string) bool {
		for _, p := range preds {
			if p(s) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is the canonical rule table. Keywords overlap between rules
// ("trend" reaches insights before trends, "care team" reaches provider
// before care-team, "show ... health" reaches dashboard before anything
// else), so the order below is the disambiguation.
func DefaultRules() []Rule {
	return []Rule{
		{domain.IntentStop, anyOf("stop", "that's all")},
		{domain.IntentDashboard, either(
			allOf("show", "health"),
			allOf("show", "dashboard"),
			allOf("my", "health"),
			anyOf("dashboard"),
		)},
		{domain.IntentRiskAssessment, either(
			allOf("risk", "assessment"),
			allOf("health", "assessment"),
			allOf("show", "assessment"),
		)},
		{domain.IntentClaims, anyOf("claim")},
		{domain.IntentVitals, anyOf("vital")},
		{domain.IntentHealthPrediction, either(
			allOf("predict", "health"),
			allOf("health", "prediction"),
		)},
		{domain.IntentGoals, anyOf("goal")},
		{domain.IntentWellness, anyOf("wellness", "program")},
		{domain.IntentMedication, anyOf("medication", "medicine", "pill")},
		{domain.IntentProvider, anyOf("provider", "doctor", "care team", "physician")},
		{domain.IntentBenefits, anyOf("benefit", "coverage", "insurance")},
		{domain.IntentInsights, anyOf("insight", "trend")},
		{domain.IntentBackToTop, anyOf("go to top", "back to top", "scroll to top", "top of page")},
		{domain.IntentCareTeam, anyOf("appointment", "schedule", "care team")},
		{domain.IntentFitness, anyOf("fitness", "progress", "exercise")},
		{domain.IntentTrends, anyOf("trends", "analytics", "data analysis")},
		{domain.IntentSleep, anyOf("sleep")},
		{domain.IntentStress, anyOf("stress")},
	}
}
