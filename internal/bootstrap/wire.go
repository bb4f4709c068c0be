// Package bootstrap assembles the runtime dependency graph.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"voicejot/internal/audio"
	"voicejot/internal/config"
	"voicejot/internal/dictation"
	"voicejot/internal/ports"
	"voicejot/internal/providers/deepgram"
	"voicejot/internal/providers/gemini"
	"voicejot/internal/share"
	"voicejot/internal/store"
	"voicejot/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Notes      *usecase.NoteManager
	Store      *store.Badger
	Mailer     *share.BrowserMailer
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, log *slog.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return Services{}, fmt.Errorf("failed to create data dir: %w", err)
	}
	corrections, err := dictation.LoadFile(cfg.Session.CorrectionsFile)
	if err != nil {
		return Services{}, err
	}
	noteStore, err := store.Open(store.Options{Dir: cfg.DataDir, Log: log})
	if err != nil {
		return Services{}, err
	}

	geminiProvider := gemini.NewProvider(gemini.Config{
		APIKey:           cfg.Gemini.APIKey,
		LiveModel:        cfg.Gemini.LiveModel,
		CategorizerModel: cfg.Gemini.CategorizerModel,
	})

	var transcriber ports.TranscriptionProvider = geminiProvider
	if cfg.Provider == "deepgram" {
		transcriber = deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			SmartFormat: cfg.Deepgram.SmartFormat,
		})
		// Categorization goes through Gemini in every provider mode.
		if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
			log.Warn("GEMINI_API_KEY is not set; categorization uses the Gemini API and will fail at stop time")
		}
	}

	mailer := share.NewBrowserMailer()
	notes := usecase.NewNoteManager(noteStore, share.NoSharer{}, mailer, log)

	controller := usecase.NewSessionController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		transcriber,
		geminiProvider,
		eventSink,
		notes.Categories,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				FrameSize:   cfg.Audio.FrameSize,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Stream: ports.StreamConfig{
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
				Language:   cfg.Audio.Language,
			},
			CloseTimeout: cfg.Session.CloseTimeout,
			Transform:    corrections.Apply,
		},
	)

	return Services{
		Controller: controller,
		Notes:      notes,
		Store:      noteStore,
		Mailer:     mailer,
		Config:     cfg,
	}, nil
}
