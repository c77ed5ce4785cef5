package domain

import "time"

// Phase is the reporting state of the voice session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseListening  Phase = "listening"
	PhaseRestarting Phase = "restarting"
	PhaseErrored    Phase = "errored"
)

// Active reports whether the phase represents a session the user still wants open.
func (p Phase) Active() bool {
	return p == PhaseListening || p == PhaseRestarting
}

// ErrorCode identifies the class of a session failure.
type ErrorCode string

const (
	ErrorCodeUnsupported    ErrorCode = "unsupported"
	ErrorCodeStartFailure   ErrorCode = "start_failure"
	ErrorCodeRuntime        ErrorCode = "runtime_error"
	ErrorCodeRestartFailure ErrorCode = "restart_failure"
	ErrorCodeStopFailure    ErrorCode = "stop_failure"
)

// Intent is one of the fixed actions a spoken command resolves to.
type Intent string

const (
	IntentDashboard        Intent = "dashboard"
	IntentRiskAssessment   Intent = "risk-assessment"
	IntentClaims           Intent = "claims"
	IntentVitals           Intent = "vitals"
	IntentHealthPrediction Intent = "health-prediction"
	IntentGoals            Intent = "goals"
	IntentWellness         Intent = "wellness"
	IntentMedication       Intent = "medication"
	IntentProvider         Intent = "provider"
	IntentBenefits         Intent = "benefits"
	IntentInsights         Intent = "insights"
	IntentBackToTop        Intent = "back-to-top"
	IntentCareTeam         Intent = "care-team"
	IntentFitness          Intent = "fitness"
	IntentTrends           Intent = "trends"
	IntentSleep            Intent = "sleep"
	IntentStress           Intent = "stress"
	IntentStop             Intent = "stop"
	IntentUnrecognized     Intent = "unrecognized"
)

// Recognized is false only for IntentUnrecognized and the zero value.
func (i Intent) Recognized() bool {
	return i != "" && i != IntentUnrecognized
}

// Command is the immutable record of one final recognition result.
type Command struct {
	ID         string    `json:"id"`
	Text       string    `json:"command"`
	Transcript string    `json:"transcript"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Intent     Intent    `json:"intent"`
	Recognized bool      `json:"recognized"`
}

// SessionState is the externally observable voice session snapshot.
type SessionState struct {
	Phase             Phase     `json:"phase"`
	Listening         bool      `json:"isListening"`
	Supported         bool      `json:"isSupported"`
	CurrentTranscript string    `json:"currentTranscript,omitempty"`
	LastCommand       *Command  `json:"lastCommand,omitempty"`
	Error             string    `json:"error,omitempty"`
	ErrorCode         ErrorCode `json:"errorCode,omitempty"`
	SessionID         string    `json:"sessionId,omitempty"`
}

// Equal compares two snapshots field by field; commands compare by ID.
func (s SessionState) Equal(other SessionState) bool {
	if s.Phase != other.Phase ||
		s.Listening != other.Listening ||
		s.Supported != other.Supported ||
		s.CurrentTranscript != other.CurrentTranscript ||
		s.Error != other.Error ||
		s.ErrorCode != other.ErrorCode ||
		s.SessionID != other.SessionID {
		return false
	}
	if s.LastCommand == nil || other.LastCommand == nil {
		return s.LastCommand == other.LastCommand
	}
	return s.LastCommand.ID == other.LastCommand.ID
}

// EngineEventKind identifies a speech engine notification.
type EngineEventKind string

const (
	EngineEventStarted EngineEventKind = "started"
	EngineEventInterim EngineEventKind = "interim"
	EngineEventFinal   EngineEventKind = "final"
	EngineEventEnd     EngineEventKind = "end"
	EngineEventError   EngineEventKind = "error"
)

// EngineEvent is one notification emitted by a speech engine.
type EngineEvent struct {
	Kind       EngineEventKind `json:"kind"`
	Text       string          `json:"text,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Code       string          `json:"code,omitempty"`
}

// Panel names a dashboard section that can receive focus.
type Panel string

const (
	PanelDashboard       Panel = "dashboard"
	PanelRiskAssessment  Panel = "risk-assessment"
	PanelClaims          Panel = "claims"
	PanelVitals          Panel = "vitals"
	PanelRecommendations Panel = "recommendations"
	PanelGoals           Panel = "goals"
	PanelWellness        Panel = "wellness"
	PanelMedications     Panel = "medications"
	PanelProvider        Panel = "provider"
	PanelBenefits        Panel = "benefits"
	PanelInsights        Panel = "insights"
	PanelTop             Panel = "top"
)

// PopupKind selects the data popup shown alongside a panel.
type PopupKind string

const (
	PopupClaims      PopupKind = "claims"
	PopupVitals      PopupKind = "vitals"
	PopupMedications PopupKind = "medications"
	PopupGoals       PopupKind = "goals"
	PopupBenefits    PopupKind = "benefits"
)

// Popup is a transient data panel. Payload is one slice of the health snapshot.
type Popup struct {
	Kind    PopupKind `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	AltText string    `json:"altText,omitempty"`
	Payload any       `json:"payload"`
}

// Priority is the urgency of an accessibility announcement.
type Priority string

const (
	PriorityPolite    Priority = "polite"
	PriorityAssertive Priority = "assertive"
)

// DispatchAction is the single side effect chosen for an intent.
type DispatchAction string

const (
	ActionFocusPanel   DispatchAction = "focus_panel"
	ActionStop         DispatchAction = "stop"
	ActionUnrecognized DispatchAction = "unrecognized"
)

// DispatchOutcome reports what the dispatcher did with a command.
type DispatchOutcome struct {
	Action       DispatchAction `json:"action"`
	Panel        Panel          `json:"panel,omitempty"`
	Confirmation string         `json:"confirmation,omitempty"`
	Popup        PopupKind      `json:"popup,omitempty"`
	PopupShown   bool           `json:"popupShown"`
}

// TranscriptKind distinguishes streaming recognizer results.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent is one result frame from a streaming transcription provider.
type TranscriptEvent struct {
	Kind          TranscriptKind
	Text          string
	Confidence    float64
	IsSpeechFinal bool
}
