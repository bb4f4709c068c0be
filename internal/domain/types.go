package domain

import "time"

// AppState models the voice-note capture lifecycle.
type AppState string

const (
	StateIdle       AppState = "idle"
	StateRecording  AppState = "recording"
	StateProcessing AppState = "processing"
	StateReview     AppState = "review"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonStartup              StateReason = "startup"
	ReasonRecordingStarted     StateReason = "recording_started"
	ReasonProcessing           StateReason = "processing"
	ReasonReviewReady          StateReason = "review_ready"
	ReasonNoTranscript         StateReason = "no_transcript"
	ReasonNoteSaved            StateReason = "note_saved"
	ReasonNoteDiscarded        StateReason = "note_discarded"
	ReasonMicDenied            StateReason = "mic_denied"
	ReasonDictationFailed      StateReason = "dictation_failed"
	ReasonCategorizationFailed StateReason = "categorization_failed"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup        ErrorCode = "startup"
	ErrorCodePermission     ErrorCode = "permission"
	ErrorCodeAudioStream    ErrorCode = "audio_stream"
	ErrorCodeDictation      ErrorCode = "dictation"
	ErrorCodeCategorization ErrorCode = "categorization"
	ErrorCodeConfiguration  ErrorCode = "configuration"
	ErrorCodePersistence    ErrorCode = "persistence"
)

// Note is a saved, categorized voice note. Notes are immutable once
// saved; deletion is the only mutation.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	EmailSent bool      `json:"emailSent"`
}

// Draft is a reviewed-but-unsaved note produced after categorization.
// It exists only between a successful stop and save/discard.
type Draft struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// UserSettings is created once at onboarding and is immutable for the
// rest of the session.
type UserSettings struct {
	OnboardingComplete bool     `json:"onboardingComplete"`
	DefaultEmail       string   `json:"defaultEmail"`
	OtherEmails        []string `json:"otherEmails"`
	Categories         []string `json:"categories"`
}

// FallbackCategory is assigned when the categorizer's answer is not a
// member of the user's configured category list.
const FallbackCategory = "Other"

// DefaultCategories doubles as the fixed priority order for grouped
// note listings.
var DefaultCategories = []string{"To-do", "Ideas", "Personal", "Work", FallbackCategory}

// DefaultSettings returns the pre-onboarding settings value.
func DefaultSettings() UserSettings {
	return UserSettings{
		Categories: append([]string(nil), DefaultCategories...),
	}
}

// TranscriptFragment is one incremental piece of live transcription
// output, appended to the session transcript buffer in arrival order.
type TranscriptFragment struct {
	Text string `json:"text"`
}

// Status summarizes the current runtime status for the UI.
type Status struct {
	State   AppState `json:"state"`
	Active  bool     `json:"active"`
	Message string   `json:"message,omitempty"`
}

// CategoryGroup is an ordered bucket of notes sharing one category.
type CategoryGroup struct {
	Category string `json:"category"`
	Notes    []Note `json:"notes"`
}
