// Package dispatch performs the UI action chosen for a classified command.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

// FallbackPhrase is spoken for unrecognized commands.
const FallbackPhrase = "Sorry, I didn't understand that command. Please try again."

// Facade routes each intent to exactly one action.
type Facade struct {
	navigator ports.PanelNavigator
	popups    ports.PopupChannel
	announcer ports.Announcer
	synth     ports.Synthesizer
	store     ports.HealthStore
	speech    ports.SpeechOptions
	logger    *zap.Logger
}

type Deps struct {
	Navigator ports.PanelNavigator
	Popups    ports.PopupChannel
	Announcer ports.Announcer
	Synth     ports.Synthesizer
	Store     ports.HealthStore
	Speech    ports.SpeechOptions
	Logger    *zap.Logger
}

func NewFacade(deps Deps) *Facade {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Facade{
		navigator: deps.Navigator,
		popups:    deps.Popups,
		announcer: deps.Announcer,
		synth:     deps.Synth,
		store:     deps.Store,
		speech:    deps.Speech,
		logger:    logger,
	}
}

// Dispatch performs the action for cmd.Intent. The stop intent is reported
// back to the caller, which owns the session.
func (f *Facade) Dispatch(ctx context.Context, cmd domain.Command) domain.DispatchOutcome {
	if cmd.Intent == domain.IntentStop {
		return domain.DispatchOutcome{Action: domain.ActionStop}
	}

	route, ok := Lookup(cmd.Intent)
	if !ok {
		f.speak(FallbackPhrase)
		return domain.DispatchOutcome{Action: domain.ActionUnrecognized}
	}

	outcome := domain.DispatchOutcome{
		Action:       domain.ActionFocusPanel,
		Panel:        route.Panel,
		Confirmation: route.Confirmation,
		Popup:        route.Popup,
	}

	f.speak(route.Confirmation)
	if f.navigator != nil {
		f.navigator.FocusPanel(route.Panel)
	}
	if route.Popup != "" {
		outcome.PopupShown = f.showPopup(ctx, route.Popup)
	}
	f.announce(fmt.Sprintf("Voice command \"%s\" executed. %s", cmd.Transcript, route.Confirmation), domain.PriorityPolite)

	f.logger.Debug("command dispatched",
		zap.String("intent", string(cmd.Intent)),
		zap.String("panel", string(route.Panel)),
		zap.Bool("popup", outcome.PopupShown),
	)
	return outcome
}

func (f *Facade) showPopup(ctx context.Context, kind domain.PopupKind) bool {
	if f.store == nil || f.popups == nil {
		return false
	}
	snap, err := f.store.CurrentSnapshot(ctx)
	if err != nil {
		f.logger.Warn("health snapshot unavailable", zap.String("popup", string(kind)), zap.Error(err))
		return false
	}
	popup, ok := buildPopup(kind, snap)
	if !ok {
		return false
	}

	f.popups.ShowPanelPopup(popup)
	f.announce(fmt.Sprintf("%s. %s. Dialog opened. Press Escape to close.", popup.Title, popup.AltText), domain.PriorityAssertive)
	return true
}

func (f *Facade) speak(text string) {
	if f.synth == nil {
		return
	}
	f.synth.Speak(text, f.speech)
}

func (f *Facade) announce(text string, priority domain.Priority) {
	if f.announcer == nil {
		return
	}
	f.announcer.Announce(text, priority)
}
