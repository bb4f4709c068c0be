package usecase

import (
	"sync/atomic"

	"voicejot/internal/ports"
)

// activeSession bundles the resources of one recording: microphone
// session, streaming transcription session, and transcript buffer.
// The bundle is acquired at Recording-entry and released as a unit at
// stop or teardown.
type activeSession struct {
	cancel func()
	audio  ports.AudioSession
	stream ports.StreamSession

	buffer *transcriptBuffer

	// stale is set synchronously at stop-initiation, before the close
	// is awaited. Fragments and frame sends observing it are dropped.
	stale atomic.Bool

	fragmentsDone chan struct{}
	pumpDone      chan struct{}
}

func newActiveSession(cancel func(), audio ports.AudioSession, stream ports.StreamSession) *activeSession {
	return &activeSession{
		cancel:        cancel,
		audio:         audio,
		stream:        stream,
		buffer:        newTranscriptBuffer(),
		fragmentsDone: make(chan struct{}),
		pumpDone:      make(chan struct{}),
	}
}
