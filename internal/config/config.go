// Package config resolves runtime configuration from the environment.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the app.
type Config struct {
	Provider string // "gemini" or "deepgram"
	DataDir  string

	Gemini   GeminiConfig
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Session  SessionConfig
}

type GeminiConfig struct {
	APIKey           string
	LiveModel        string
	CategorizerModel string
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	FrameSize       int
	Language        string
}

type SessionConfig struct {
	CloseTimeout    time.Duration
	CorrectionsFile string
}

// Load resolves configuration from a local .env file (if present) and
// environment variables, with sensible defaults.
func Load() (Config, error) {
	// Missing .env is the normal case; the environment wins either way.
	_ = godotenv.Load()

	dataDir := strings.TrimSpace(os.Getenv("VOICEJOT_DATA_DIR"))
	if dataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, errors.New("could not determine config directory")
		}
		dataDir = filepath.Join(base, "voicejot")
	}

	cfg := Config{
		Provider: strings.ToLower(envOrDefault("VOICEJOT_PROVIDER", "gemini")),
		DataDir:  dataDir,
		Gemini: GeminiConfig{
			APIKey:           strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			LiveModel:        envOrDefault("GEMINI_LIVE_MODEL", "gemini-2.0-flash-live-001"),
			CategorizerModel: envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("VOICEJOT_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("VOICEJOT_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("VOICEJOT_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("VOICEJOT_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("VOICEJOT_CHANNELS", 1),
			FrameSize:       envOrDefaultInt("VOICEJOT_AUDIO_FRAME_SIZE", 1600),
			Language:        strings.TrimSpace(os.Getenv("VOICEJOT_LANGUAGE")),
		},
		Session: SessionConfig{
			CloseTimeout:    time.Duration(envOrDefaultInt("VOICEJOT_CLOSE_TIMEOUT_MS", 4000)) * time.Millisecond,
			CorrectionsFile: envOrDefault("VOICEJOT_CORRECTIONS_FILE", filepath.Join(dataDir, "corrections.rules")),
		},
	}

	if cfg.Provider != "gemini" && cfg.Provider != "deepgram" {
		return Config{}, errors.New("VOICEJOT_PROVIDER must be gemini or deepgram")
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.FrameSize < 160 {
		cfg.Audio.FrameSize = 1600
	}
	if cfg.Session.CloseTimeout <= 0 {
		cfg.Session.CloseTimeout = 4 * time.Second
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
