// Package store persists notes and settings in a local BadgerDB.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"voicejot/internal/domain"
)

var (
	settingsKey = []byte("settings")
	notesKey    = []byte("notes")
)

// Options configures the store.
type Options struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory skips disk persistence. Used in tests.
	InMemory bool

	// Log receives badger's internal messages. Defaults to slog.Default().
	Log *slog.Logger
}

// Badger implements ports.NoteStore.
type Badger struct {
	db *badger.DB
}

func Open(opts Options) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: Options.Dir is required for on-disk mode")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(slogAdapter{log: log})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open note store: %w", err)
	}
	return &Badger{db: db}, nil
}

// LoadSettings returns the persisted settings. The second return value
// reports whether settings were present at all.
func (b *Badger) LoadSettings(ctx context.Context) (domain.UserSettings, bool, error) {
	var settings domain.UserSettings
	found, err := b.load(ctx, settingsKey, &settings)
	if err != nil {
		return domain.UserSettings{}, false, err
	}
	if !found {
		return domain.DefaultSettings(), false, nil
	}
	if len(settings.Categories) == 0 {
		settings.Categories = append([]string(nil), domain.DefaultCategories...)
	}
	return settings, true, nil
}

func (b *Badger) SaveSettings(ctx context.Context, settings domain.UserSettings) error {
	return b.save(ctx, settingsKey, settings)
}

func (b *Badger) LoadNotes(ctx context.Context) ([]domain.Note, error) {
	var notes []domain.Note
	if _, err := b.load(ctx, notesKey, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (b *Badger) SaveNotes(ctx context.Context, notes []domain.Note) error {
	if notes == nil {
		notes = []domain.Note{}
	}
	return b.save(ctx, notesKey, notes)
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) load(ctx context.Context, key []byte, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

func (b *Badger) save(ctx context.Context, key []byte, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, raw)
	})
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// slogAdapter routes badger's chatty logger onto slog at reduced
// severity.
type slogAdapter struct {
	log *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.log.Error(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Warningf(format string, args ...any) {
	a.log.Warn(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Infof(format string, args ...any) {
	a.log.Debug(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.log.Debug(fmt.Sprintf("badger: "+format, args...))
}
