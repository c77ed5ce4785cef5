package dispatch

import (
	"voicewell/internal/domain"
	"voicewell/internal/healthdata"
)

// buildPopup extracts the data slice for kind. It reports false when the
// snapshot has nothing to show.
func buildPopup(kind domain.PopupKind, snap *healthdata.Snapshot) (domain.Popup, bool) {
	if snap == nil {
		return domain.Popup{}, false
	}

	switch kind {
	case domain.PopupVitals:
		if snap.Metrics == nil {
			return domain.Popup{}, false
		}
		return domain.Popup{
			Kind:    kind,
			Title:   "Vital Signs",
			Message: "Your current health metrics and vital signs",
			AltText: healthdata.VitalsAltText(*snap.Metrics),
			Payload: *snap.Metrics,
		}, true
	case domain.PopupClaims:
		if len(snap.Claims) == 0 {
			return domain.Popup{}, false
		}
		return domain.Popup{
			Kind:    kind,
			Title:   "Recent Claims",
			Message: "Your recent insurance claims and status",
			AltText: healthdata.ClaimsAltText(snap.Claims),
			Payload: snap.Claims,
		}, true
	case domain.PopupMedications:
		if len(snap.Medications) == 0 {
			return domain.Popup{}, false
		}
		return domain.Popup{
			Kind:    kind,
			Title:   "Medications",
			Message: "Your current medication schedule and adherence",
			AltText: healthdata.MedicationsAltText(snap.Medications),
			Payload: snap.Medications,
		}, true
	case domain.PopupGoals:
		if len(snap.HealthGoals) == 0 {
			return domain.Popup{}, false
		}
		return domain.Popup{
			Kind:    kind,
			Title:   "Health Goals",
			Message: "Your health goals and progress tracking",
			AltText: healthdata.GoalsAltText(snap.HealthGoals),
			Payload: snap.HealthGoals,
		}, true
	case domain.PopupBenefits:
		if snap.Benefits == nil {
			return domain.Popup{}, false
		}
		return domain.Popup{
			Kind:    kind,
			Title:   "Benefits Summary",
			Message: "Your insurance benefits and coverage details",
			AltText: healthdata.BenefitsAltText(*snap.Benefits),
			Payload: *snap.Benefits,
		}, true
	default:
		return domain.Popup{}, false
	}
}
