package dispatch

import "voicewell/internal/domain"

// Route is the single UI action bound to a recognized intent.
type Route struct {
	Panel        domain.Panel
	Confirmation string
	Popup        domain.PopupKind
}

var routes = map[domain.Intent]Route{
	domain.IntentDashboard:        {domain.PanelDashboard, "Opening your health dashboard", ""},
	domain.IntentRiskAssessment:   {domain.PanelRiskAssessment, "Showing your health risk assessment", ""},
	domain.IntentClaims:           {domain.PanelClaims, "Opening your claims information", domain.PopupClaims},
	domain.IntentVitals:           {domain.PanelVitals, "Displaying your vital signs information", domain.PopupVitals},
	domain.IntentHealthPrediction: {domain.PanelRecommendations, "Showing your health predictions and recommendations", ""},
	domain.IntentGoals:            {domain.PanelGoals, "Showing your health goals", domain.PopupGoals},
	domain.IntentWellness:         {domain.PanelWellness, "Opening your wellness programs", ""},
	domain.IntentMedication:       {domain.PanelMedications, "Showing your medication tracker", domain.PopupMedications},
	domain.IntentProvider:         {domain.PanelProvider, "Showing your care team information", ""},
	domain.IntentBenefits:         {domain.PanelBenefits, "Showing your benefits summary", domain.PopupBenefits},
	domain.IntentInsights:         {domain.PanelInsights, "Showing your health insights", ""},
	domain.IntentBackToTop:        {domain.PanelTop, "Scrolling to the top of the page", ""},
	domain.IntentCareTeam:         {domain.PanelProvider, "Showing your care team and appointment schedule", ""},
	domain.IntentFitness:          {domain.PanelGoals, "Displaying your fitness goals and progress", ""},
	domain.IntentTrends:           {domain.PanelInsights, "Showing your health trends and analytics", ""},
	domain.IntentSleep:            {domain.PanelVitals, "Displaying your sleep data and quality metrics", ""},
	domain.IntentStress:           {domain.PanelWellness, "Showing your stress levels and management programs", ""},
}

// Lookup returns the route for a recognized intent.
func Lookup(intent domain.Intent) (Route, bool) {
	route, ok := routes[intent]
	return route, ok
}
