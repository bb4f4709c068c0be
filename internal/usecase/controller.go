package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"voicejot/internal/domain"
	"voicejot/internal/ports"
)

var (
	ErrNoActiveSession = errors.New("no active recording session")
	ErrNotIdle         = errors.New("recording can only start from idle")
	ErrNoTranscript    = errors.New("no transcript captured")
)

// Config controls recording session behavior.
type Config struct {
	Audio        ports.AudioConfig
	Stream       ports.StreamConfig
	CloseTimeout time.Duration

	// Transform rewrites the finished transcript before
	// categorization. Nil means no rewriting.
	Transform func(string) string
}

// SessionController owns the microphone stream, the live transcription
// session, and the Idle/Recording/Processing/Review state machine.
type SessionController struct {
	capture    ports.AudioCapture
	provider   ports.TranscriptionProvider
	categorize ports.Categorizer
	events     ports.EventSink
	categories func() []string
	cfg        Config

	mu      sync.Mutex
	state   domain.AppState
	current *activeSession
}

func NewSessionController(
	capture ports.AudioCapture,
	provider ports.TranscriptionProvider,
	categorizer ports.Categorizer,
	events ports.EventSink,
	categories func() []string,
	cfg Config,
) *SessionController {
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 4 * time.Second
	}
	return &SessionController{
		capture:    capture,
		provider:   provider,
		categorize: categorizer,
		events:     events,
		categories: categories,
		cfg:        cfg,
		state:      domain.StateIdle,
	}
}

// Start begins a new capture/transcription session. The microphone is
// acquired before the network session so a permission refusal never
// opens a connection.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.state = domain.StateRecording
	c.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)

	audio, err := c.capture.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		c.setState(domain.StateIdle)
		c.events.SessionError(domain.ErrorCodePermission, err.Error())
		if !errors.Is(err, ports.ErrPermissionDenied) {
			err = fmt.Errorf("%w: %v", ports.ErrPermissionDenied, err)
		}
		return err
	}

	stream, err := c.provider.Open(sessionCtx, c.cfg.Stream)
	if err != nil {
		_ = audio.Stop()
		cancel()
		c.setState(domain.StateIdle)
		c.events.SessionError(domain.ErrorCodeDictation, err.Error())
		return err
	}

	active := newActiveSession(cancel, audio, stream)

	c.mu.Lock()
	if c.state != domain.StateRecording {
		// Torn down while the session was opening; release
		// everything it acquired.
		c.mu.Unlock()
		active.stale.Store(true)
		cancel()
		_ = stream.Close()
		_ = audio.Stop()
		return ErrNoActiveSession
	}
	c.current = active
	c.mu.Unlock()

	go c.consumeFragments(active)
	go c.pumpFrames(active)

	c.events.StateChanged(domain.StateRecording, domain.ReasonRecordingStarted)
	return nil
}

// Stop ends the active session, releases its resources unconditionally
// and in order, then evaluates the transcript. A non-empty transcript
// is handed to the categorizer; success moves the machine to Review
// with a draft, anything else returns it to Idle.
func (c *SessionController) Stop(ctx context.Context) (domain.Draft, error) {
	c.mu.Lock()
	active := c.current
	if active == nil || c.state != domain.StateRecording {
		c.mu.Unlock()
		return domain.Draft{}, ErrNoActiveSession
	}
	c.state = domain.StateProcessing
	c.current = nil
	c.mu.Unlock()

	// Invalidate the session authority before awaiting its close so
	// late fragments and pending frame sends are dropped.
	active.stale.Store(true)
	c.events.StateChanged(domain.StateProcessing, domain.ReasonProcessing)

	_ = active.stream.CloseSend()
	_ = waitForStream(active.stream, c.cfg.CloseTimeout)
	if err := active.audio.Stop(); err != nil {
		c.events.SessionError(domain.ErrorCodeAudioStream, "failed to stop audio capture cleanly")
	}
	active.cancel()
	<-active.fragmentsDone
	<-active.pumpDone

	transcript := strings.TrimSpace(active.buffer.String())
	active.buffer.Reset()
	if transcript != "" && c.cfg.Transform != nil {
		transcript = strings.TrimSpace(c.cfg.Transform(transcript))
	}
	if transcript == "" {
		c.setState(domain.StateIdle)
		c.events.StateChanged(domain.StateIdle, domain.ReasonNoTranscript)
		return domain.Draft{}, ErrNoTranscript
	}

	category, err := c.categorize.Categorize(ctx, transcript, c.categories())
	if err != nil {
		c.setState(domain.StateIdle)
		c.events.SessionError(domain.ErrorCodeCategorization, err.Error())
		c.events.StateChanged(domain.StateIdle, domain.ReasonCategorizationFailed)
		return domain.Draft{}, err
	}

	draft := domain.Draft{Text: transcript, Category: category}
	c.setState(domain.StateReview)
	c.events.DraftReady(draft)
	c.events.StateChanged(domain.StateReview, domain.ReasonReviewReady)
	return draft, nil
}

// CompleteReview returns the machine from Review to Idle after a save,
// discard, or reset. It is a no-op in any other state.
func (c *SessionController) CompleteReview(reason domain.StateReason) {
	c.mu.Lock()
	if c.state != domain.StateReview {
		c.mu.Unlock()
		return
	}
	c.state = domain.StateIdle
	c.mu.Unlock()
	c.events.StateChanged(domain.StateIdle, reason)
}

// Status returns the current state machine snapshot.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{State: c.state, Active: c.state != domain.StateIdle}
}

// Teardown releases any open session on component shutdown. Safe to
// call when nothing was ever opened, and safe to call twice.
func (c *SessionController) Teardown() {
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.state = domain.StateIdle
	c.mu.Unlock()

	if active == nil {
		return
	}
	active.stale.Store(true)
	active.cancel()
	_ = active.stream.Close()
	_ = active.audio.Stop()
	<-active.fragmentsDone
	<-active.pumpDone
}

func (c *SessionController) setState(state domain.AppState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// consumeFragments appends incoming transcription fragments to the
// session buffer. When the stream ends without a stop having been
// requested, the session failed live and the machine aborts to Idle.
func (c *SessionController) consumeFragments(active *activeSession) {
	defer close(active.fragmentsDone)

	for fragment := range active.stream.Fragments() {
		if active.stale.Load() || fragment.Text == "" {
			continue
		}
		c.events.TranscriptUpdated(active.buffer.Append(fragment.Text))
	}

	if active.stale.Load() {
		return
	}
	c.abortLiveSession(active, active.stream.Wait())
}

func (c *SessionController) abortLiveSession(active *activeSession, cause error) {
	c.mu.Lock()
	if c.current != active {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.state = domain.StateIdle
	c.mu.Unlock()

	active.stale.Store(true)
	active.cancel()
	_ = active.stream.Close()
	_ = active.audio.Stop()

	detail := "transcription session closed unexpectedly"
	if cause != nil {
		detail = cause.Error()
	}
	c.events.SessionError(domain.ErrorCodeDictation, detail)
	c.events.StateChanged(domain.StateIdle, domain.ReasonDictationFailed)
}

func waitForStream(stream ports.StreamSession, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- stream.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = stream.Close()
		return <-done
	}
}
