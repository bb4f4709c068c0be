package usecase

import (
	"strings"
	"sync"
)

// transcriptBuffer accumulates live transcription fragments for one
// recording session. It is owned by the session's fragment consumer;
// the controller reads a snapshot at stop time.
type transcriptBuffer struct {
	mu   sync.Mutex
	text string
}

func newTranscriptBuffer() *transcriptBuffer {
	return &transcriptBuffer{}
}

// Append adds a fragment and renormalizes the whole accumulated text.
// Sentence breaks spanning two fragments are caught by always running
// over the full buffer; the rewrite is idempotent.
func (b *transcriptBuffer) Append(fragment string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = normalizeTranscript(b.text + fragment)
	return b.text
}

func (b *transcriptBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *transcriptBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
}

// normalizeTranscript rewrites every ". " to ".\n". Re-running on
// already-normalized text leaves it unchanged.
func normalizeTranscript(text string) string {
	return strings.ReplaceAll(text, ". ", ".\n")
}
