package ports

import (
	"context"
	"errors"

	"voicejot/internal/domain"
	"voicejot/internal/pcm"
)

// ErrPermissionDenied reports that microphone access was refused.
var ErrPermissionDenied = errors.New("microphone access denied")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	FrameSize   int
	InputFormat string
	InputDevice string
}

// AudioSession is a live microphone capture session delivering
// normalized float frames in capture order.
type AudioSession interface {
	ReadFrame() ([]float32, error)
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamConfig describes provider-agnostic live transcription settings.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Language   string
}

// StreamSession is an open bidirectional transcription exchange.
type StreamSession interface {
	SendAudio(payload pcm.Payload) error
	CloseSend() error
	Fragments() <-chan domain.TranscriptFragment
	Wait() error
	Close() error
}

// TranscriptionProvider opens live transcription sessions.
type TranscriptionProvider interface {
	Open(ctx context.Context, cfg StreamConfig) (StreamSession, error)
}

// Categorizer maps (text, allowed categories) to a category name.
// Implementations own the membership/fallback policy: a successful
// return is always a member of categories or the fallback category.
type Categorizer interface {
	Categorize(ctx context.Context, text string, categories []string) (string, error)
}

// NoteStore persists user settings and the saved-notes sequence.
type NoteStore interface {
	LoadSettings(ctx context.Context) (domain.UserSettings, bool, error)
	SaveSettings(ctx context.Context, settings domain.UserSettings) error
	LoadNotes(ctx context.Context) ([]domain.Note, error)
	SaveNotes(ctx context.Context, notes []domain.Note) error
	Close() error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	StateChanged(state domain.AppState, reason domain.StateReason)
	TranscriptUpdated(text string)
	DraftReady(draft domain.Draft)
	SessionError(code domain.ErrorCode, detail string)
}

// Sharer invokes a native share sheet when one is available.
type Sharer interface {
	Available() bool
	Share(ctx context.Context, title string, text string) error
}

// Mailer opens a mail-compose request for an explicit recipient.
type Mailer interface {
	Compose(ctx context.Context, to string, subject string, body string) error
}
