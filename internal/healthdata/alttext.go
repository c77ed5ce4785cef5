package healthdata

import (
	"fmt"
	"math"
	"strconv"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// VitalsAltText describes vital signs for screen readers.
func VitalsAltText(m Metrics) string {
	return fmt.Sprintf(
		"Health vitals: Heart rate %d beats per minute, Blood pressure %d over %d, Blood sugar %d mg/dL, BMI %s",
		m.HeartRate, m.BloodPressure.Systolic, m.BloodPressure.Diastolic, m.BloodSugar, num(m.BMI),
	)
}

func ClaimsAltText(claims []Claim) string {
	var total float64
	for _, c := range claims {
		total += c.Amount
	}
	return fmt.Sprintf("%d recent claims totaling $%s", len(claims), num(total))
}

func GoalsAltText(goals []Goal) string {
	completed := 0
	for _, g := range goals {
		if g.Completed() {
			completed++
		}
	}
	return fmt.Sprintf("%d health goals, %d completed", len(goals), completed)
}

func MedicationsAltText(meds []Medication) string {
	if len(meds) == 0 {
		return "0 medications"
	}
	var sum float64
	for _, m := range meds {
		sum += m.Adherence
	}
	avg := math.Round(sum / float64(len(meds)))
	return fmt.Sprintf("%d medications with average adherence of %s%%", len(meds), num(avg))
}

func BenefitsAltText(b Benefits) string {
	return fmt.Sprintf(
		"%s: deductible $%s of $%s used, out of pocket $%s of $%s used",
		b.PlanName, num(b.Deductible.Used), num(b.Deductible.Total), num(b.OutOfPocket.Used), num(b.OutOfPocket.Total),
	)
}
