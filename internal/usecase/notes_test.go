package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"voicejot/internal/domain"
)

func newTestManager(store *fakeNoteStore, sharer *fakeSharer, mailer *fakeMailer) *NoteManager {
	if store == nil {
		store = &fakeNoteStore{}
	}
	if sharer == nil {
		sharer = &fakeSharer{}
	}
	if mailer == nil {
		mailer = &fakeMailer{}
	}
	return NewNoteManager(store, sharer, mailer, slog.Default())
}

func loadedManager(t *testing.T, store *fakeNoteStore) *NoteManager {
	t.Helper()
	m := newTestManager(store, nil, nil)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return m
}

func TestNoteManagerSaveDraft(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{}
	m := loadedManager(t, store)
	before := time.Now()

	m.SetDraft(domain.Draft{Text: "buy milk", Category: "To-do"})
	note, err := m.Save(context.Background())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if note.ID == "" {
		t.Fatalf("expected generated id")
	}
	if note.Text != "To-do:\n\nbuy milk" {
		t.Fatalf("unexpected note text: %q", note.Text)
	}
	if note.Category != "To-do" {
		t.Fatalf("unexpected category: %q", note.Category)
	}
	if note.Timestamp.Before(before) {
		t.Fatalf("timestamp %v predates the call", note.Timestamp)
	}
	if note.EmailSent {
		t.Fatalf("expected emailSent=false without prior share")
	}

	if _, ok := m.Draft(); ok {
		t.Fatalf("draft must be cleared after save")
	}
	if got := m.Notes(); len(got) != 1 || got[0].ID != note.ID {
		t.Fatalf("unexpected notes: %+v", got)
	}
	if len(store.savedNotes) != 1 {
		t.Fatalf("expected one persisted write, got %d", len(store.savedNotes))
	}
}

func TestNoteManagerSaveWithoutDraft(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, &fakeNoteStore{})
	if _, err := m.Save(context.Background()); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}

func TestNoteManagerSavePrependsNewestFirst(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, &fakeNoteStore{})

	m.SetDraft(domain.Draft{Text: "first", Category: "Ideas"})
	first, _ := m.Save(context.Background())
	m.SetDraft(domain.Draft{Text: "second", Category: "Ideas"})
	second, _ := m.Save(context.Background())

	notes := m.Notes()
	if len(notes) != 2 || notes[0].ID != second.ID || notes[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", notes)
	}
	if first.ID == second.ID {
		t.Fatalf("ids must be unique")
	}
}

func TestNoteManagerSaveCapturesEmailSentFlag(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	m := newTestManager(&fakeNoteStore{}, nil, mailer)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	m.SetDraft(domain.Draft{Text: "status update", Category: "Work"})
	if err := m.Share(context.Background(), "boss@example.com"); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	note, err := m.Save(context.Background())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !note.EmailSent {
		t.Fatalf("expected emailSent=true after share")
	}

	// The flag does not leak into the next draft.
	m.SetDraft(domain.Draft{Text: "another", Category: "Work"})
	note2, _ := m.Save(context.Background())
	if note2.EmailSent {
		t.Fatalf("emailSent leaked into a fresh draft")
	}
}

func TestNoteManagerDiscard(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, &fakeNoteStore{})
	m.SetDraft(domain.Draft{Text: "scratch", Category: "Other"})
	m.ClearDraft()
	if _, ok := m.Draft(); ok {
		t.Fatalf("expected no draft after discard")
	}
	if got := m.Notes(); len(got) != 0 {
		t.Fatalf("discard must not persist, got %+v", got)
	}
}

func TestNoteManagerShareExplicitRecipient(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	sharer := &fakeSharer{available: true}
	m := newTestManager(&fakeNoteStore{}, sharer, mailer)
	_ = m.Load(context.Background())

	m.SetDraft(domain.Draft{Text: "agenda", Category: "Work"})
	if err := m.Share(context.Background(), "peer@example.com"); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	if mailer.to != "peer@example.com" {
		t.Fatalf("unexpected recipient: %q", mailer.to)
	}
	if mailer.subject != "Note: Work" {
		t.Fatalf("unexpected subject: %q", mailer.subject)
	}
	if mailer.body != "Work:\n\nagenda" {
		t.Fatalf("unexpected body: %q", mailer.body)
	}
	if sharer.calls != 0 {
		t.Fatalf("explicit recipient must bypass the native share")
	}
}

func TestNoteManagerShareNativeSheetCancellationStillCounts(t *testing.T) {
	t.Parallel()

	sharer := &fakeSharer{available: true, err: errors.New("dismissed")}
	m := newTestManager(&fakeNoteStore{}, sharer, &fakeMailer{})
	_ = m.Load(context.Background())

	m.SetDraft(domain.Draft{Text: "poem", Category: "Personal"})
	if err := m.Share(context.Background(), ""); err == nil {
		t.Fatalf("expected share cancellation error to propagate")
	}

	note, err := m.Save(context.Background())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !note.EmailSent {
		t.Fatalf("a cancelled native share still counts as emailed")
	}
}

func TestNoteManagerShareFallsBackToDefaultEmail(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	m := newTestManager(&fakeNoteStore{}, &fakeSharer{}, mailer)
	_ = m.Load(context.Background())
	if err := m.CompleteOnboarding(context.Background(), domain.UserSettings{
		DefaultEmail: "me@example.com",
		Categories:   []string{"To-do"},
	}); err != nil {
		t.Fatalf("onboarding failed: %v", err)
	}

	m.SetDraft(domain.Draft{Text: "list", Category: "To-do"})
	if err := m.Share(context.Background(), ""); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if mailer.to != "me@example.com" {
		t.Fatalf("expected default email fallback, got %q", mailer.to)
	}
}

func TestNoteManagerShareWithoutConfigurationShortCircuits(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeNoteStore{}, &fakeSharer{}, &fakeMailer{})
	_ = m.Load(context.Background())

	m.SetDraft(domain.Draft{Text: "orphan", Category: "Other"})
	if err := m.Share(context.Background(), ""); !errors.Is(err, ErrNoDefaultEmail) {
		t.Fatalf("expected ErrNoDefaultEmail, got %v", err)
	}

	note, err := m.Save(context.Background())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if note.EmailSent {
		t.Fatalf("missing-configuration short-circuit must not mark emailed")
	}
}

func TestNoteManagerShareWithoutDraft(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, &fakeNoteStore{})
	if err := m.Share(context.Background(), "x@example.com"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}

func TestNoteManagerDeleteAbsentIDIsNoOp(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{}
	m := loadedManager(t, store)
	m.SetDraft(domain.Draft{Text: "keep me", Category: "Other"})
	note, _ := m.Save(context.Background())
	writes := len(store.savedNotes)

	m.Delete(context.Background(), "no-such-id")

	notes := m.Notes()
	if len(notes) != 1 || notes[0].ID != note.ID {
		t.Fatalf("absent id changed the sequence: %+v", notes)
	}
	if len(store.savedNotes) != writes {
		t.Fatalf("absent id must not trigger a write")
	}
}

func TestNoteManagerDeleteRemovesNote(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, &fakeNoteStore{})
	m.SetDraft(domain.Draft{Text: "a", Category: "Other"})
	a, _ := m.Save(context.Background())
	m.SetDraft(domain.Draft{Text: "b", Category: "Other"})
	b, _ := m.Save(context.Background())

	m.Delete(context.Background(), a.ID)
	notes := m.Notes()
	if len(notes) != 1 || notes[0].ID != b.ID {
		t.Fatalf("unexpected notes after delete: %+v", notes)
	}
}

func TestNoteManagerSkipsWritesBeforeLoad(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{}
	m := newTestManager(store, nil, nil)

	m.SetDraft(domain.Draft{Text: "early", Category: "Other"})
	if _, err := m.Save(context.Background()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(store.savedNotes) != 0 {
		t.Fatalf("write must be suppressed before initial load")
	}
}

func TestNoteManagerPersistenceFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	store := &fakeNoteStore{saveNotesErr: errors.New("disk full")}
	m := loadedManager(t, store)

	m.SetDraft(domain.Draft{Text: "fragile", Category: "Other"})
	note, err := m.Save(context.Background())
	if err != nil {
		t.Fatalf("save must not fail on persistence error: %v", err)
	}
	if got := m.Notes(); len(got) != 1 || got[0].ID != note.ID {
		t.Fatalf("in-memory state must stay authoritative, got %+v", got)
	}
}

func TestNoteManagerOnboardingValidation(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, &fakeNoteStore{})

	cases := []domain.UserSettings{
		{DefaultEmail: "", Categories: []string{"To-do"}},
		{DefaultEmail: "not-an-email", Categories: []string{"To-do"}},
		{DefaultEmail: "ok@example.com", Categories: nil},
		{DefaultEmail: "ok@example.com", OtherEmails: []string{"bad"}, Categories: []string{"To-do"}},
	}
	for _, settings := range cases {
		if err := m.CompleteOnboarding(context.Background(), settings); err == nil {
			t.Fatalf("expected validation error for %+v", settings)
		}
	}

	valid := domain.UserSettings{
		DefaultEmail: "ok@example.com",
		OtherEmails:  []string{"second@example.com"},
		Categories:   []string{"To-do", "Ideas"},
	}
	if err := m.CompleteOnboarding(context.Background(), valid); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	got := m.Settings()
	if !got.OnboardingComplete {
		t.Fatalf("expected onboarding marked complete")
	}
	if len(got.Categories) != 2 {
		t.Fatalf("unexpected categories: %+v", got.Categories)
	}
}

func TestNoteManagerLoadUsesStoredState(t *testing.T) {
	t.Parallel()

	stored := []domain.Note{{ID: "n1", Text: "Other:\n\nhi", Category: "Other", Timestamp: time.Now()}}
	store := &fakeNoteStore{
		settings:      domain.UserSettings{OnboardingComplete: true, DefaultEmail: "me@example.com", Categories: []string{"A"}},
		settingsFound: true,
		notes:         stored,
	}
	m := newTestManager(store, nil, nil)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := m.Settings(); !got.OnboardingComplete || got.DefaultEmail != "me@example.com" {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if got := m.Notes(); len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("unexpected notes: %+v", got)
	}
}

// --- fakes ---

type fakeNoteStore struct {
	mu sync.Mutex

	settings      domain.UserSettings
	settingsFound bool
	notes         []domain.Note

	loadSettingsErr error
	loadNotesErr    error
	saveNotesErr    error

	savedNotes    [][]domain.Note
	savedSettings []domain.UserSettings
}

func (f *fakeNoteStore) LoadSettings(_ context.Context) (domain.UserSettings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadSettingsErr != nil {
		return domain.UserSettings{}, false, f.loadSettingsErr
	}
	return f.settings, f.settingsFound, nil
}

func (f *fakeNoteStore) SaveSettings(_ context.Context, settings domain.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = settings
	f.settingsFound = true
	f.savedSettings = append(f.savedSettings, settings)
	return nil
}

func (f *fakeNoteStore) LoadNotes(_ context.Context) ([]domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadNotesErr != nil {
		return nil, f.loadNotesErr
	}
	return append([]domain.Note(nil), f.notes...), nil
}

func (f *fakeNoteStore) SaveNotes(_ context.Context, notes []domain.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveNotesErr != nil {
		return f.saveNotesErr
	}
	f.notes = append([]domain.Note(nil), notes...)
	f.savedNotes = append(f.savedNotes, f.notes)
	return nil
}

func (f *fakeNoteStore) Close() error { return nil }

type fakeSharer struct {
	available bool
	err       error
	calls     int
	title     string
	text      string
}

func (f *fakeSharer) Available() bool { return f.available }

func (f *fakeSharer) Share(_ context.Context, title string, text string) error {
	f.calls++
	f.title = title
	f.text = text
	return f.err
}

type fakeMailer struct {
	err     error
	to      string
	subject string
	body    string
}

func (f *fakeMailer) Compose(_ context.Context, to string, subject string, body string) error {
	f.to = to
	f.subject = subject
	f.body = body
	return f.err
}
