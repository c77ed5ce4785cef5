package healthdata

import (
	"math"
	"time"
)

const maxRisk = 100

// ScoreRisk derives a risk assessment from vitals and lifestyle factors.
func ScoreRisk(m Metrics, l Lifestyle, now time.Time) RiskAssessment {
	var cardio, diabetes, hypertension int

	switch {
	case m.BloodPressure.Systolic > 140:
		cardio += 25
	case m.BloodPressure.Systolic > 120:
		cardio += 15
	}
	if m.Cholesterol.Total > 200 {
		cardio += 20
	}
	if m.Cholesterol.HDL < 40 {
		cardio += 15
	}
	switch {
	case m.BMI > 30:
		cardio += 20
	case m.BMI > 25:
		cardio += 10
	}

	if m.BloodSugar > 100 {
		diabetes += 25
	}
	if m.BMI > 30 {
		diabetes += 20
	}

	if m.BloodPressure.Systolic > 130 {
		hypertension += 30
	}
	if m.BloodPressure.Diastolic > 80 {
		hypertension += 25
	}

	if l.SmokingStatus == "current" {
		cardio += 30
		diabetes += 15
	}
	if l.ExerciseFrequency < 3 {
		cardio += 15
		diabetes += 10
		hypertension += 10
	}

	cardio = min(cardio, maxRisk)
	diabetes = min(diabetes, maxRisk)
	hypertension = min(hypertension, maxRisk)

	overall := int(math.Round(float64(cardio+diabetes+hypertension) / 3))

	assessment := RiskAssessment{
		OverallRisk:        overall,
		CardiovascularRisk: cardio,
		DiabetesRisk:       diabetes,
		HypertensionRisk:   hypertension,
		LastUpdated:        now,
	}
	assessment.Recommendations = recommendations(assessment)
	return assessment
}

func recommendations(r RiskAssessment) []string {
	var out []string
	switch {
	case r.OverallRisk < 30:
		out = append(out,
			"Great job! Continue your healthy lifestyle",
			"Schedule annual check-ups",
		)
	case r.OverallRisk < 60:
		out = append(out,
			"Consider lifestyle modifications",
			"Increase physical activity to 150 minutes/week",
			"Focus on a heart-healthy diet",
		)
	default:
		out = append(out,
			"Consult with your healthcare provider immediately",
			"Consider medication management",
			"Implement strict dietary changes",
		)
	}

	if r.CardiovascularRisk > 50 {
		out = append(out, "Schedule cardiology consultation")
	}
	if r.DiabetesRisk > 50 {
		out = append(out, "Monitor blood glucose regularly")
	}
	if r.HypertensionRisk > 50 {
		out = append(out, "Monitor blood pressure daily")
	}
	return out
}

// ClaimsSummary aggregates a claims history.
type ClaimsSummary struct {
	Count         int                `json:"claimsCount"`
	TotalAmount   float64            `json:"totalAmount"`
	AverageAmount float64            `json:"averageClaimAmount"`
	ByType        map[string]float64 `json:"claimsByType"`
	LastClaimDate time.Time          `json:"lastClaimDate"`
}

// SummarizeClaims returns ok=false for an empty history.
func SummarizeClaims(claims []Claim) (ClaimsSummary, bool) {
	if len(claims) == 0 {
		return ClaimsSummary{}, false
	}

	summary := ClaimsSummary{Count: len(claims), ByType: make(map[string]float64)}
	for _, claim := range claims {
		summary.TotalAmount += claim.Amount
		summary.ByType[claim.Type] += claim.Amount
		if claim.Date.After(summary.LastClaimDate) {
			summary.LastClaimDate = claim.Date
		}
	}
	summary.AverageAmount = summary.TotalAmount / float64(len(claims))
	return summary, true
}

// WithMetrics returns a copy of s whose metrics are replaced and whose risk
// assessment is rescored.
func (s *Snapshot) WithMetrics(m Metrics, now time.Time) *Snapshot {
	next := *s
	next.Metrics = &m
	risk := ScoreRisk(m, s.Lifestyle, now)
	next.RiskAssessment = &risk
	return &next
}
