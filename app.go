package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicejot/internal/bootstrap"
	"voicejot/internal/config"
	"voicejot/internal/domain"
	"voicejot/internal/usecase"
)

const (
	eventState      = "voicejot:state"
	eventTranscript = "voicejot:transcript"
	eventDraft      = "voicejot:draft"
	eventError      = "voicejot:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context
	log *slog.Logger

	controller *usecase.SessionController
	notes      *usecase.NoteManager
	services   bootstrap.Services
	cfg        config.Config
	bootErr    error
}

func NewApp(log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{log: log}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a.log)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.cfg = services.Config
	a.controller = services.Controller
	a.notes = services.Notes
	services.Mailer.Bind(func(url string) {
		runtime.BrowserOpenURL(a.ctx, url)
	})

	if err := a.notes.Load(ctx); err != nil {
		a.log.Error("failed to load stored notes", "error", err)
		a.SessionError(domain.ErrorCodePersistence, err.Error())
	}

	a.StateChanged(domain.StateIdle, domain.ReasonStartup)
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Teardown()
	}
	if a.services.Store != nil {
		if err := a.services.Store.Close(); err != nil {
			a.log.Error("failed to close note store", "error", err)
		}
	}
}

// StartRecording begins a new capture session. Starting over from
// Review first returns the machine to Idle and discards the pending
// draft, as if the note had been dismissed.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}

	a.controller.CompleteReview(domain.ReasonNoteDiscarded)
	a.notes.ClearDraft()
	if err := a.controller.Start(a.ctx); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// StopRecording ends the capture session and produces a categorized
// draft for review. Stopping with nothing recorded, or with an empty
// transcript, is not an error from the UI's point of view.
func (a *App) StopRecording() (domain.Draft, error) {
	if err := a.requireReady(); err != nil {
		return domain.Draft{}, err
	}

	draft, err := a.controller.Stop(a.ctx)
	if err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) || errors.Is(err, usecase.ErrNoTranscript) {
			return domain.Draft{}, nil
		}
		return domain.Draft{}, err
	}
	return draft, nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.StateIdle, Active: false, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.StateIdle, Active: false}
	}
	return a.controller.Status()
}

// SaveNote persists the reviewed draft and returns the stored note.
func (a *App) SaveNote() (domain.Note, error) {
	if err := a.requireReady(); err != nil {
		return domain.Note{}, err
	}

	note, err := a.notes.Save(a.ctx)
	if err != nil {
		return domain.Note{}, err
	}
	a.controller.CompleteReview(domain.ReasonNoteSaved)
	return note, nil
}

// DiscardNote drops the reviewed draft without saving.
func (a *App) DiscardNote() {
	if a.notes == nil {
		return
	}
	a.notes.ClearDraft()
	a.controller.CompleteReview(domain.ReasonNoteDiscarded)
}

// ShareNote sends the current draft by mail or the platform share
// sheet. An empty recipient uses the configured default address.
func (a *App) ShareNote(recipient string) error {
	if err := a.requireReady(); err != nil {
		return err
	}

	if err := a.notes.Share(a.ctx, recipient); err != nil {
		if errors.Is(err, usecase.ErrNoDefaultEmail) {
			a.SessionError(domain.ErrorCodeConfiguration, err.Error())
		}
		return err
	}
	return nil
}

// DeleteNote removes a saved note by id.
func (a *App) DeleteNote(id string) {
	if a.notes == nil {
		return
	}
	a.notes.Delete(a.ctx, id)
}

// GetNotes returns saved notes, newest first.
func (a *App) GetNotes() []domain.Note {
	if a.notes == nil {
		return []domain.Note{}
	}
	return a.notes.Notes()
}

// GetGroupedNotes returns saved notes grouped by category.
func (a *App) GetGroupedNotes() []domain.CategoryGroup {
	if a.notes == nil {
		return []domain.CategoryGroup{}
	}
	return a.notes.Grouped()
}

// GetSettings returns the current user settings.
func (a *App) GetSettings() domain.UserSettings {
	if a.notes == nil {
		return domain.DefaultSettings()
	}
	return a.notes.Settings()
}

// CompleteOnboarding validates and stores the user's settings.
func (a *App) CompleteOnboarding(settings domain.UserSettings) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.notes.CompleteOnboarding(a.ctx, settings)
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// StateChanged emits session lifecycle updates to the frontend.
func (a *App) StateChanged(state domain.AppState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// TranscriptUpdated emits the accumulated live transcript.
func (a *App) TranscriptUpdated(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{"text": text})
}

// DraftReady hands the categorized draft to the note manager and
// notifies the frontend that review can begin.
func (a *App) DraftReady(draft domain.Draft) {
	if a.notes != nil {
		a.notes.SetDraft(draft)
	}
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDraft, map[string]string{
		"text":     draft.Text,
		"category": draft.Category,
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.ReasonStartup:
		return "Ready"
	case domain.ReasonRecordingStarted:
		return "Recording"
	case domain.ReasonProcessing:
		return "Processing..."
	case domain.ReasonReviewReady:
		return "Review your note"
	case domain.ReasonNoTranscript:
		return "No speech captured"
	case domain.ReasonNoteSaved:
		return "Note saved"
	case domain.ReasonNoteDiscarded:
		return "Note discarded"
	case domain.ReasonMicDenied:
		return "Microphone access denied"
	case domain.ReasonDictationFailed:
		return "Transcription failed"
	case domain.ReasonCategorizationFailed:
		return "Categorization failed"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePermission:
		return "Microphone access denied"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeDictation:
		return "Transcription error"
	case domain.ErrorCodeCategorization:
		return "Categorization failed"
	case domain.ErrorCodeConfiguration:
		return "Set a default email address in settings"
	case domain.ErrorCodePersistence:
		return "Could not save your data"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
