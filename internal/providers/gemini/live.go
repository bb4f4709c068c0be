// Package gemini implements live transcription and note categorization
// on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"google.golang.org/genai"

	"voicejot/internal/domain"
	"voicejot/internal/pcm"
	"voicejot/internal/ports"
)

// ErrMissingAPIKey reports absent credentials, a configuration problem
// distinct from transient transport failures.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not configured")

// Config controls the Gemini backends.
type Config struct {
	APIKey           string
	LiveModel        string
	CategorizerModel string
}

// Provider implements ports.TranscriptionProvider and ports.Categorizer
// against the Gemini API.
type Provider struct {
	cfg Config

	clientOnce sync.Once
	client     *genai.Client
	clientErr  error
}

func NewProvider(cfg Config) *Provider {
	if cfg.LiveModel == "" {
		cfg.LiveModel = "gemini-2.0-flash-live-001"
	}
	if cfg.CategorizerModel == "" {
		cfg.CategorizerModel = "gemini-2.0-flash"
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) getClient(ctx context.Context) (*genai.Client, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	p.clientOnce.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return p.client, p.clientErr
}

// Open starts a live session configured for transcription of input
// audio with an audio-capable response modality.
func (p *Provider) Open(ctx context.Context, _ ports.StreamConfig) (ports.StreamSession, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	session, err := client.Live.Connect(ctx, p.cfg.LiveModel, &genai.LiveConnectConfig{
		ResponseModalities:      []genai.Modality{genai.ModalityAudio},
		InputAudioTranscription: &genai.AudioTranscriptionConfig{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open live session: %w", err)
	}

	ls := &liveSession{
		session:   session,
		fragments: make(chan domain.TranscriptFragment, 64),
		done:      make(chan struct{}),
	}
	go ls.receiveLoop()

	go func() {
		<-ctx.Done()
		_ = ls.Close()
	}()

	return ls, nil
}

type liveSession struct {
	session *genai.Session

	fragments chan domain.TranscriptFragment
	done      chan struct{}

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
	sendMu    sync.RWMutex
	closing   bool
}

func (s *liveSession) SendAudio(payload pcm.Payload) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closing {
		return nil
	}
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{MIMEType: payload.MIME, Data: payload.Data},
	})
}

func (s *liveSession) CloseSend() error {
	// The live protocol has no half-close that still yields input
	// transcription; fragments arrive during recording, so stopping
	// the exchange closes the session outright.
	return s.Close()
}

func (s *liveSession) Fragments() <-chan domain.TranscriptFragment {
	return s.fragments
}

func (s *liveSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		s.sendMu.Lock()
		s.closing = true
		s.sendMu.Unlock()
		_ = s.session.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *liveSession) isClosing() bool {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	return s.closing
}

func (s *liveSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *liveSession) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *liveSession) receiveLoop() {
	defer func() {
		close(s.fragments)
		close(s.done)
	}()

	for {
		msg, err := s.session.Receive()
		if err != nil {
			if !s.isClosing() && !errors.Is(err, io.EOF) {
				s.setErr(fmt.Errorf("live session receive: %w", err))
			}
			return
		}
		if msg.ServerContent == nil || msg.ServerContent.InputTranscription == nil {
			continue
		}
		text := msg.ServerContent.InputTranscription.Text
		if text == "" {
			continue
		}
		s.fragments <- domain.TranscriptFragment{Text: text}
	}
}
