package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"voicejot/internal/domain"
)

func TestBuildSuccess(t *testing.T) {
	t.Setenv("VOICEJOT_DATA_DIR", t.TempDir())
	t.Setenv("VOICEJOT_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")

	services, err := Build(noopEventSink{}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer func() { _ = services.Store.Close() }()

	if services.Controller == nil || services.Notes == nil || services.Mailer == nil {
		t.Fatalf("incomplete services: %+v", services)
	}
	if services.Config.Provider != "gemini" {
		t.Fatalf("unexpected provider: %q", services.Config.Provider)
	}
}

func TestBuildSelectsDeepgram(t *testing.T) {
	t.Setenv("VOICEJOT_DATA_DIR", t.TempDir())
	t.Setenv("VOICEJOT_PROVIDER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	services, err := Build(noopEventSink{}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer func() { _ = services.Store.Close() }()

	if services.Config.Provider != "deepgram" {
		t.Fatalf("unexpected provider: %q", services.Config.Provider)
	}
}

func TestBuildWarnsWhenDeepgramLacksGeminiKey(t *testing.T) {
	t.Setenv("VOICEJOT_DATA_DIR", t.TempDir())
	t.Setenv("VOICEJOT_PROVIDER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "test-key")
	t.Setenv("GEMINI_API_KEY", "")

	records := &recordingHandler{}
	services, err := Build(noopEventSink{}, slog.New(records))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer func() { _ = services.Store.Close() }()

	if !records.sawWarn("GEMINI_API_KEY") {
		t.Fatalf("expected a warning about the missing Gemini key, got %v", records.messages())
	}
}

func TestBuildFailsOnMalformedCorrections(t *testing.T) {
	dataDir := t.TempDir()
	corrections := filepath.Join(dataDir, "corrections.rules")
	if err := os.WriteFile(corrections, []byte("not a valid correction\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("VOICEJOT_DATA_DIR", dataDir)
	t.Setenv("VOICEJOT_PROVIDER", "gemini")
	t.Setenv("VOICEJOT_CORRECTIONS_FILE", corrections)

	if _, err := Build(noopEventSink{}, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatalf("expected build error for malformed corrections")
	}
}

func TestBuildFailsOnUnknownProvider(t *testing.T) {
	t.Setenv("VOICEJOT_DATA_DIR", t.TempDir())
	t.Setenv("VOICEJOT_PROVIDER", "whisper")

	if _, err := Build(noopEventSink{}, nil); err == nil {
		t.Fatalf("expected build error for unknown provider")
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, record)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *recordingHandler) sawWarn(substr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, record := range h.records {
		if record.Level >= slog.LevelWarn && strings.Contains(record.Message, substr) {
			return true
		}
	}
	return false
}

func (h *recordingHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.records))
	for _, record := range h.records {
		out = append(out, record.Message)
	}
	return out
}

type noopEventSink struct{}

func (noopEventSink) StateChanged(_ domain.AppState, _ domain.StateReason) {}
func (noopEventSink) TranscriptUpdated(_ string)                           {}
func (noopEventSink) DraftReady(_ domain.Draft)                            {}
func (noopEventSink) SessionError(_ domain.ErrorCode, _ string)            {}
