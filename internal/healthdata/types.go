package healthdata

import "time"

// Snapshot is one read-only view of a member's health record.
type Snapshot struct {
	UserID           string            `yaml:"user_id" json:"userId"`
	Metrics          *Metrics          `yaml:"metrics" json:"metrics"`
	Claims           []Claim           `yaml:"claims" json:"claims"`
	RiskAssessment   *RiskAssessment   `yaml:"risk_assessment" json:"riskAssessment"`
	Lifestyle        Lifestyle         `yaml:"lifestyle" json:"lifestyle"`
	Medications      []Medication      `yaml:"medications" json:"medications"`
	CareTeam         []CareTeamMember  `yaml:"care_team" json:"careTeam"`
	WellnessPrograms []WellnessProgram `yaml:"wellness_programs" json:"wellnessPrograms"`
	HealthGoals      []Goal            `yaml:"health_goals" json:"healthGoals"`
	Benefits         *Benefits         `yaml:"benefits" json:"benefits"`
	HealthInsights   []Insight         `yaml:"health_insights" json:"healthInsights"`
}

type BloodPressure struct {
	Systolic  int `yaml:"systolic" json:"systolic"`
	Diastolic int `yaml:"diastolic" json:"diastolic"`
}

type Cholesterol struct {
	Total int `yaml:"total" json:"total"`
	HDL   int `yaml:"hdl" json:"hdl"`
	LDL   int `yaml:"ldl" json:"ldl"`
}

type Metrics struct {
	BloodPressure BloodPressure `yaml:"blood_pressure" json:"bloodPressure"`
	HeartRate     int           `yaml:"heart_rate" json:"heartRate"`
	BloodSugar    int           `yaml:"blood_sugar" json:"bloodSugar"`
	Cholesterol   Cholesterol   `yaml:"cholesterol" json:"cholesterol"`
	BMI           float64       `yaml:"bmi" json:"bmi"`
	Weight        float64       `yaml:"weight" json:"weight"`
	Height        float64       `yaml:"height" json:"height"`
}

type ClaimStatus string

const (
	ClaimApproved ClaimStatus = "approved"
	ClaimPending  ClaimStatus = "pending"
	ClaimDenied   ClaimStatus = "denied"
)

type Claim struct {
	ID          string      `yaml:"id" json:"id"`
	Date        time.Time   `yaml:"date" json:"date"`
	Type        string      `yaml:"type" json:"type"`
	Amount      float64     `yaml:"amount" json:"amount"`
	Description string      `yaml:"description" json:"description"`
	Provider    string      `yaml:"provider" json:"provider"`
	Status      ClaimStatus `yaml:"status" json:"status"`
}

// RiskAssessment scores are percentages in [0,100].
type RiskAssessment struct {
	OverallRisk        int       `yaml:"overall_risk" json:"overallRisk"`
	CardiovascularRisk int       `yaml:"cardiovascular_risk" json:"cardiovascularRisk"`
	DiabetesRisk       int       `yaml:"diabetes_risk" json:"diabetesRisk"`
	HypertensionRisk   int       `yaml:"hypertension_risk" json:"hypertensionRisk"`
	Recommendations    []string  `yaml:"recommendations" json:"recommendations"`
	LastUpdated        time.Time `yaml:"last_updated" json:"lastUpdated"`
}

type Lifestyle struct {
	SmokingStatus      string  `yaml:"smoking_status" json:"smokingStatus"`
	AlcoholConsumption string  `yaml:"alcohol_consumption" json:"alcoholConsumption"`
	ExerciseFrequency  int     `yaml:"exercise_frequency" json:"exerciseFrequency"`
	SleepHours         float64 `yaml:"sleep_hours" json:"sleepHours"`
	StressLevel        int     `yaml:"stress_level" json:"stressLevel"`
}

type Medication struct {
	Name       string    `yaml:"name" json:"name"`
	Dosage     string    `yaml:"dosage" json:"dosage"`
	Frequency  string    `yaml:"frequency" json:"frequency"`
	Adherence  float64   `yaml:"adherence" json:"adherence"`
	Prescriber string    `yaml:"prescriber" json:"prescriber"`
	RefillDate time.Time `yaml:"refill_date" json:"refillDate"`
}

type CareTeamMember struct {
	Name            string    `yaml:"name" json:"name"`
	Specialty       string    `yaml:"specialty" json:"specialty"`
	Phone           string    `yaml:"phone" json:"phone"`
	Email           string    `yaml:"email" json:"email"`
	NextAppointment time.Time `yaml:"next_appointment" json:"nextAppointment"`
	Location        string    `yaml:"location" json:"location"`
}

type WellnessProgram struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Progress    float64 `yaml:"progress" json:"progress"`
	Target      string  `yaml:"target" json:"target"`
	Enrolled    bool    `yaml:"enrolled" json:"enrolled"`
}

type Goal struct {
	Title       string    `yaml:"title" json:"title"`
	Target      string    `yaml:"target" json:"target"`
	Current     float64   `yaml:"current" json:"current"`
	TargetValue float64   `yaml:"target_value" json:"targetValue"`
	Unit        string    `yaml:"unit" json:"unit"`
	Deadline    time.Time `yaml:"deadline" json:"deadline"`
	Category    string    `yaml:"category" json:"category"`
}

// Completed reports whether current progress has reached the target.
func (g Goal) Completed() bool {
	return g.TargetValue > 0 && g.Current/g.TargetValue >= 1
}

type Allowance struct {
	Used  float64 `yaml:"used" json:"used"`
	Total float64 `yaml:"total" json:"total"`
}

type Benefits struct {
	Deductible           Allowance `yaml:"deductible" json:"deductible"`
	OutOfPocket          Allowance `yaml:"out_of_pocket" json:"outOfPocket"`
	MedicalCoverage      int       `yaml:"medical_coverage" json:"medicalCoverage"`
	PrescriptionCoverage int       `yaml:"prescription_coverage" json:"prescriptionCoverage"`
	PlanName             string    `yaml:"plan_name" json:"planName"`
	MemberID             string    `yaml:"member_id" json:"memberId"`
}

type Insight struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
	Trend       string `yaml:"trend" json:"trend"`
	Actionable  bool   `yaml:"actionable" json:"actionable"`
}
