package healthdata

import "time"

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// MockSnapshot returns the built-in demo member record. The risk assessment
// is stamped with now.
func MockSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		UserID: "user123",
		Metrics: &Metrics{
			BloodPressure: BloodPressure{Systolic: 125, Diastolic: 82},
			HeartRate:     72,
			BloodSugar:    95,
			Cholesterol:   Cholesterol{Total: 180, HDL: 45, LDL: 110},
			BMI:           24.5,
			Weight:        165,
			Height:        68,
		},
		Claims: []Claim{
			{
				ID:          "CLM001",
				Date:        day(2024, time.November, 15),
				Type:        "Preventive Care",
				Amount:      250,
				Description: "Annual Physical Exam",
				Provider:    "Dr. Smith Family Practice",
				Status:      ClaimApproved,
			},
			{
				ID:          "CLM002",
				Date:        day(2024, time.October, 22),
				Type:        "Diagnostic",
				Amount:      180,
				Description: "Blood Panel Analysis",
				Provider:    "LabCorp",
				Status:      ClaimApproved,
			},
			{
				ID:          "CLM003",
				Date:        day(2024, time.September, 30),
				Type:        "Specialist",
				Amount:      320,
				Description: "Cardiologist Consultation",
				Provider:    "Heart Health Specialists",
				Status:      ClaimPending,
			},
		},
		RiskAssessment: &RiskAssessment{
			OverallRisk:        25,
			CardiovascularRisk: 20,
			DiabetesRisk:       15,
			HypertensionRisk:   30,
			Recommendations: []string{
				"Continue regular exercise routine",
				"Monitor blood pressure weekly",
				"Reduce sodium intake",
				"Schedule follow-up in 3 months",
			},
			LastUpdated: now,
		},
		Lifestyle: Lifestyle{
			SmokingStatus:      "never",
			AlcoholConsumption: "light",
			ExerciseFrequency:  4,
			SleepHours:         7.5,
			StressLevel:        4,
		},
		Medications: []Medication{
			{Name: "Lisinopril", Dosage: "10mg", Frequency: "Once daily", Adherence: 95, Prescriber: "Dr. Smith", RefillDate: day(2025, time.February, 15)},
			{Name: "Metformin", Dosage: "500mg", Frequency: "Twice daily", Adherence: 88, Prescriber: "Dr. Johnson", RefillDate: day(2025, time.January, 20)},
			{Name: "Vitamin D3", Dosage: "2000 IU", Frequency: "Once daily", Adherence: 92, Prescriber: "Dr. Smith", RefillDate: day(2025, time.March, 10)},
		},
		CareTeam: []CareTeamMember{
			{Name: "Dr. Sarah Smith", Specialty: "Primary Care", Phone: "(555) 123-4567", Email: "dr.smith@healthcenter.com", NextAppointment: day(2025, time.February, 15), Location: "Main Health Center"},
			{Name: "Dr. Michael Johnson", Specialty: "Cardiologist", Phone: "(555) 234-5678", Email: "dr.johnson@heartcenter.com", NextAppointment: day(2025, time.March, 1), Location: "Heart Specialists Clinic"},
			{Name: "Lisa Rodriguez, RN", Specialty: "Diabetes Educator", Phone: "(555) 345-6789", Email: "l.rodriguez@diabetescenter.com", NextAppointment: day(2025, time.February, 8), Location: "Diabetes Care Center"},
		},
		WellnessPrograms: []WellnessProgram{
			{Name: "Heart Healthy Living", Description: "Cardiovascular wellness program", Progress: 75, Target: "Complete 12-week program", Enrolled: true},
			{Name: "Diabetes Prevention", Description: "Lifestyle modification program", Progress: 60, Target: "Achieve target A1C levels", Enrolled: true},
			{Name: "Stress Management", Description: "Mindfulness and stress reduction", Progress: 45, Target: "Complete 8-week course", Enrolled: true},
		},
		HealthGoals: []Goal{
			{Title: "Daily Steps", Target: "10,000 steps per day", Current: 8500, TargetValue: 10000, Unit: "steps", Deadline: day(2025, time.June, 1), Category: "Fitness"},
			{Title: "Weight Loss", Target: "Lose 15 pounds", Current: 10, TargetValue: 15, Unit: "lbs", Deadline: day(2025, time.May, 1), Category: "Weight Management"},
			{Title: "Blood Pressure", Target: "Maintain BP under 130/80", Current: 125, TargetValue: 130, Unit: "mmHg", Deadline: day(2025, time.December, 31), Category: "Cardiovascular"},
		},
		Benefits: &Benefits{
			Deductible:           Allowance{Used: 1250, Total: 2500},
			OutOfPocket:          Allowance{Used: 2100, Total: 6000},
			MedicalCoverage:      80,
			PrescriptionCoverage: 75,
			PlanName:             "AZ Blue Choice Plus",
			MemberID:             "AZB123456789",
		},
		HealthInsights: []Insight{
			{Title: "Blood Pressure Trend", Description: "Your blood pressure has improved over the last 3 months", Type: "improvement", Trend: "improving"},
			{Title: "Medication Adherence", Description: "Consider setting up automatic refills for better adherence", Type: "warning", Trend: "stable", Actionable: true},
			{Title: "Exercise Progress", Description: "You're meeting your weekly exercise goals consistently", Type: "improvement", Trend: "improving"},
			{Title: "Sleep Quality", Description: "Your sleep patterns show room for improvement", Type: "info", Trend: "declining", Actionable: true},
		},
	}
}
