package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/willow-creek/internal/engine"
)

// Quick-save slots run from 1 to MaxSlot.
const MaxSlot = 10

// indexFile is the index database inside the checkpoint directory.
const indexFile = "index.db"

var (
	ErrNotFound            = errors.New("checkpoint not found")
	ErrCorrupt             = errors.New("checkpoint corrupt")
	ErrInvalidSlot         = errors.New("invalid quick-save slot")
	ErrInvalidName         = errors.New("invalid checkpoint name")
	ErrIncompatibleVersion = errors.New("incompatible checkpoint version")
)

// IncompatibleVersionError reports a payload written by a format this build
// cannot read.
type IncompatibleVersionError struct {
	Found     int
	Supported int
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("checkpoint version %d (supported up to %d)", e.Found, e.Supported)
}

func (e *IncompatibleVersionError) Unwrap() error { return ErrIncompatibleVersion }

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Manager saves and restores worlds in one checkpoint directory.
type Manager struct {
	dir      string
	index    *Index
	instance string
	now      func() time.Time
}

// NewManager opens the checkpoint directory, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint dir: %w", err)
	}
	idx, err := OpenIndex(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, err
	}
	return &Manager{dir: dir, index: idx, instance: uuid.NewString(), now: time.Now}, nil
}

// Close releases the index.
func (m *Manager) Close() error {
	return m.index.Close()
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+payloadExt)
}

// SlotName is the checkpoint name of a quick-save slot.
func SlotName(slot int) string {
	return fmt.Sprintf("quicksave_%d", slot)
}

// Save writes the world under name, superseding any earlier checkpoint with
// the same name. An empty name becomes "checkpoint_<YYYYMMDD_HHMMSS>".
func (m *Manager) Save(w *engine.World, name, description string) (Meta, error) {
	if name == "" {
		name = "checkpoint_" + m.now().UTC().Format("20060102_150405")
	}
	return m.save(w, name, description, 0)
}

func (m *Manager) save(w *engine.World, name, description string, slot int) (Meta, error) {
	if !validName.MatchString(name) {
		return Meta{}, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}

	st := w.Export()
	now := m.now().UTC()
	h := Header{
		Format:     formatName,
		Version:    CurrentVersion,
		Name:       name,
		CreatedAt:  now,
		Tick:       st.Tick,
		InstanceID: m.instance,
	}
	staged, size, err := stagePayload(m.path(name), h, toDocument(st))
	if err != nil {
		return Meta{}, fmt.Errorf("save %q: %w", name, err)
	}
	swap, err := swapPayload(staged, m.path(name))
	if err != nil {
		return Meta{}, fmt.Errorf("save %q: %w", name, err)
	}

	meta := Meta{
		Name:         name,
		Slot:         slot,
		CreatedAt:    now,
		SimTime:      st.Clock.Label(),
		TotalDays:    st.Clock.TotalDays,
		Tick:         st.Tick,
		AgentCount:   len(st.Agents),
		Version:      CurrentVersion,
		Description:  description,
		PayloadBytes: size,
		InstanceID:   m.instance,
	}
	if err := m.index.Put(meta); err != nil {
		if uerr := swap.undo(); uerr != nil {
			slog.Error("checkpoint rollback failed", "name", name, "error", uerr)
		}
		return Meta{}, err
	}
	swap.commit()

	slog.Info("checkpoint saved", "name", name, "tick", st.Tick, "time", meta.SimTime, "bytes", size)
	return meta, nil
}

// Load replaces w with the checkpoint called name. On any error w is left
// as it was.
func (m *Manager) Load(name string, w *engine.World) (Meta, error) {
	meta, err := m.index.Get(name)
	if err != nil {
		return Meta{}, err
	}
	h, body, err := readPayload(m.path(name))
	if err != nil {
		return Meta{}, err
	}
	doc, err := decodeBody(h, body)
	if err != nil {
		return Meta{}, fmt.Errorf("load %q: %w", name, err)
	}
	st, err := doc.toState()
	if err != nil {
		return Meta{}, fmt.Errorf("load %q: %w: %v", name, ErrCorrupt, err)
	}
	if err := w.Restore(st); err != nil {
		return Meta{}, fmt.Errorf("load %q: %w: %v", name, ErrCorrupt, err)
	}

	slog.Info("checkpoint loaded", "name", name, "version", h.Version, "tick", st.Tick, "time", meta.SimTime)
	return meta, nil
}

// QuickSave writes the world to slot 1..MaxSlot.
func (m *Manager) QuickSave(w *engine.World, slot int) (Meta, error) {
	if slot < 1 || slot > MaxSlot {
		return Meta{}, fmt.Errorf("slot %d: %w", slot, ErrInvalidSlot)
	}
	return m.save(w, SlotName(slot), fmt.Sprintf("Quick save slot %d", slot), slot)
}

// QuickLoad restores the world from slot 1..MaxSlot.
func (m *Manager) QuickLoad(slot int, w *engine.World) (Meta, error) {
	if slot < 1 || slot > MaxSlot {
		return Meta{}, fmt.Errorf("slot %d: %w", slot, ErrInvalidSlot)
	}
	return m.Load(SlotName(slot), w)
}

// List returns checkpoint metadata, newest first.
func (m *Manager) List() ([]Meta, error) {
	return m.index.List()
}

// Delete removes a checkpoint's payload and index row.
func (m *Manager) Delete(name string) error {
	if err := m.index.Remove(name); err != nil {
		return err
	}
	if err := os.Remove(m.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	slog.Info("checkpoint deleted", "name", name)
	return nil
}
