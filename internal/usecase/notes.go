package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicejot/internal/domain"
	"voicejot/internal/ports"
)

var (
	ErrNoDraft        = errors.New("no draft note to act on")
	ErrNoDefaultEmail = errors.New("no default email configured; set one to share notes")
)

// NoteManager turns reviewed drafts into persisted notes, composes
// outbound shares, and owns user settings and the saved-notes
// sequence. Persistence is best-effort: the in-memory state stays
// authoritative when the store misbehaves.
type NoteManager struct {
	store  ports.NoteStore
	sharer ports.Sharer
	mailer ports.Mailer
	log    *slog.Logger

	now   func() time.Time
	newID func() string

	mu          sync.Mutex
	settings    domain.UserSettings
	notes       []domain.Note
	loaded      bool
	draft       *domain.Draft
	justEmailed bool
}

func NewNoteManager(store ports.NoteStore, sharer ports.Sharer, mailer ports.Mailer, log *slog.Logger) *NoteManager {
	if log == nil {
		log = slog.Default()
	}
	return &NoteManager{
		store:    store,
		sharer:   sharer,
		mailer:   mailer,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
		settings: domain.DefaultSettings(),
	}
}

// Load reads settings and notes from the store. Writes are suppressed
// until a load has completed so a failed startup read cannot be
// clobbered by the first mutation.
func (m *NoteManager) Load(ctx context.Context) error {
	settings, found, err := m.store.LoadSettings(ctx)
	if err != nil {
		m.log.Error("loading settings failed", "err", err)
		return err
	}
	notes, err := m.store.LoadNotes(ctx)
	if err != nil {
		m.log.Error("loading notes failed", "err", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if found {
		m.settings = settings
	}
	m.notes = notes
	m.loaded = true
	return nil
}

// Settings returns a snapshot of the current user settings.
func (m *NoteManager) Settings() domain.UserSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySettings(m.settings)
}

// Categories returns the active category list.
func (m *NoteManager) Categories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.settings.Categories...)
}

// CompleteOnboarding validates and persists the one-time settings.
func (m *NoteManager) CompleteOnboarding(ctx context.Context, settings domain.UserSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	settings.OnboardingComplete = true

	m.mu.Lock()
	m.settings = copySettings(settings)
	m.mu.Unlock()

	if err := m.store.SaveSettings(ctx, settings); err != nil {
		m.log.Error("persisting settings failed", "err", err)
	}
	return nil
}

// SetDraft installs the reviewed draft and clears the share flag.
func (m *NoteManager) SetDraft(draft domain.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = &draft
	m.justEmailed = false
}

// ClearDraft drops any pending draft and the share flag. Used both by
// discard and when a new recording begins.
func (m *NoteManager) ClearDraft() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = nil
	m.justEmailed = false
}

// Draft returns the pending draft, if any.
func (m *NoteManager) Draft() (domain.Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return domain.Draft{}, false
	}
	return *m.draft, true
}

// Save persists the pending draft as a new note, most recent first.
// The stored text carries the category label as a prefix; emailSent
// captures whether a share was attempted before saving.
func (m *NoteManager) Save(ctx context.Context) (domain.Note, error) {
	m.mu.Lock()
	if m.draft == nil {
		m.mu.Unlock()
		return domain.Note{}, ErrNoDraft
	}
	note := domain.Note{
		ID:        m.newID(),
		Text:      prefixedText(*m.draft),
		Category:  m.draft.Category,
		Timestamp: m.now(),
		EmailSent: m.justEmailed,
	}
	m.notes = append([]domain.Note{note}, m.notes...)
	m.draft = nil
	m.justEmailed = false
	snapshot := append([]domain.Note(nil), m.notes...)
	m.mu.Unlock()

	m.persistNotes(ctx, snapshot)
	return note, nil
}

// Share routes the pending draft to an explicit recipient, the native
// share sheet, or the configured default email, in that order. Any
// attempted share marks the draft as emailed, including a cancelled
// native share; only the missing-configuration short-circuit does not.
func (m *NoteManager) Share(ctx context.Context, recipient string) error {
	m.mu.Lock()
	if m.draft == nil {
		m.mu.Unlock()
		return ErrNoDraft
	}
	draft := *m.draft
	defaultEmail := strings.TrimSpace(m.settings.DefaultEmail)
	m.mu.Unlock()

	subject := "Note: " + draft.Category
	body := prefixedText(draft)

	switch {
	case strings.TrimSpace(recipient) != "":
		m.markEmailed()
		return m.mailer.Compose(ctx, strings.TrimSpace(recipient), subject, body)
	case m.sharer.Available():
		m.markEmailed()
		return m.sharer.Share(ctx, subject, body)
	case defaultEmail != "":
		m.markEmailed()
		return m.mailer.Compose(ctx, defaultEmail, subject, body)
	default:
		return ErrNoDefaultEmail
	}
}

// Delete removes the note with the given id; absent ids are a no-op.
func (m *NoteManager) Delete(ctx context.Context, id string) {
	m.mu.Lock()
	kept := m.notes[:0:0]
	for _, note := range m.notes {
		if note.ID != id {
			kept = append(kept, note)
		}
	}
	if len(kept) == len(m.notes) {
		m.mu.Unlock()
		return
	}
	m.notes = kept
	snapshot := append([]domain.Note(nil), m.notes...)
	m.mu.Unlock()

	m.persistNotes(ctx, snapshot)
}

// Notes returns the saved notes, most recent first.
func (m *NoteManager) Notes() []domain.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Note(nil), m.notes...)
}

// Grouped returns the saved notes bucketed by category in the fixed
// priority order.
func (m *NoteManager) Grouped() []domain.CategoryGroup {
	m.mu.Lock()
	notes := append([]domain.Note(nil), m.notes...)
	priority := append([]string(nil), m.settings.Categories...)
	m.mu.Unlock()
	return GroupNotes(notes, priority)
}

func (m *NoteManager) markEmailed() {
	m.mu.Lock()
	m.justEmailed = true
	m.mu.Unlock()
}

func (m *NoteManager) persistNotes(ctx context.Context, notes []domain.Note) {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if !loaded {
		m.log.Warn("skipping notes write before initial load completed")
		return
	}
	if err := m.store.SaveNotes(ctx, notes); err != nil {
		m.log.Error("persisting notes failed", "err", err)
	}
}

func prefixedText(draft domain.Draft) string {
	return draft.Category + ":\n\n" + draft.Text
}

func validateSettings(settings domain.UserSettings) error {
	email := strings.TrimSpace(settings.DefaultEmail)
	if email == "" {
		return errors.New("default email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid default email %q: %w", email, err)
	}
	for _, other := range settings.OtherEmails {
		if _, err := mail.ParseAddress(strings.TrimSpace(other)); err != nil {
			return fmt.Errorf("invalid email %q: %w", other, err)
		}
	}
	if len(settings.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	return nil
}

func copySettings(settings domain.UserSettings) domain.UserSettings {
	settings.OtherEmails = append([]string(nil), settings.OtherEmails...)
	settings.Categories = append([]string(nil), settings.Categories...)
	return settings
}
