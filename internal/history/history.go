package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/choclar/precificador/internal/pricing"
)

const defaultSlot = "default"

var (
	// ErrEmptyName rejects saving a snapshot without a usable label.
	ErrEmptyName = errors.New("snapshot name is required")
	// ErrSnapshotNotFound is returned when no snapshot carries the given id.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Snapshot is an immutable, named, timestamped copy of the working item list
// and adjustments, plus the grand total cached at save time. It is never
// recomputed on load.
type Snapshot struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	SavedAt         time.Time          `json:"savedAt"`
	Items           []pricing.LineItem `json:"items"`
	Freight         float64            `json:"freight"`
	DiscountPercent float64            `json:"discountPercent"`
	MarkupPercent   float64            `json:"markupPercent"`
	GrandTotal      float64            `json:"grandTotal"`
}

// NewSnapshot builds a snapshot from the current working state, deep-copying
// the item list so later edits cannot reach into the archive. A blank or
// whitespace-only name is rejected with ErrEmptyName.
func NewSnapshot(name string, items []pricing.LineItem, adj pricing.Adjustments, grandTotal float64, now time.Time) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Snapshot{}, ErrEmptyName
	}

	copied := make([]pricing.LineItem, len(items))
	copy(copied, items)

	return Snapshot{
		ID:              uuid.NewString(),
		Name:            name,
		SavedAt:         now.UTC(),
		Items:           copied,
		Freight:         adj.Freight,
		DiscountPercent: adj.DiscountPercent,
		MarkupPercent:   adj.MarkupPercent,
		GrandTotal:      grandTotal,
	}, nil
}

// Store persists the ordered snapshot list (most recent first) as a single
// JSON slot in SQLite. Every mutation rewrites the whole slot; concurrent
// writers are last-writer-wins.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore returns a store over the given database handle.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// List returns all snapshots, most recent first. An absent or unparseable
// slot degrades to an empty history; corruption is logged, never surfaced.
func (s *Store) List() ([]Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM history_slots WHERE slot = ?`, defaultSlot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history slot: %w", err)
	}

	var snapshots []Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshots); err != nil {
		s.log.Warn().Err(err).Msg("history slot is corrupt, treating as empty")
		return []Snapshot{}, nil
	}
	if snapshots == nil {
		snapshots = []Snapshot{}
	}
	return snapshots, nil
}

// Get returns the snapshot with the given id.
func (s *Store) Get(id string) (Snapshot, error) {
	snapshots, err := s.List()
	if err != nil {
		return Snapshot{}, err
	}
	for _, snap := range snapshots {
		if snap.ID == id {
			return snap, nil
		}
	}
	return Snapshot{}, ErrSnapshotNotFound
}

// Append prepends the snapshot to the history and rewrites the slot.
func (s *Store) Append(snap Snapshot) error {
	snapshots, err := s.List()
	if err != nil {
		return err
	}
	snapshots = append([]Snapshot{snap}, snapshots...)
	return s.write(snapshots)
}

// Remove deletes the snapshot with the given id and rewrites the slot.
func (s *Store) Remove(id string) error {
	snapshots, err := s.List()
	if err != nil {
		return err
	}

	kept := snapshots[:0]
	found := false
	for _, snap := range snapshots {
		if snap.ID == id {
			found = true
			continue
		}
		kept = append(kept, snap)
	}
	if !found {
		return ErrSnapshotNotFound
	}
	return s.write(kept)
}

func (s *Store) write(snapshots []Snapshot) error {
	payload, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO history_slots (slot, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, defaultSlot, string(payload))
	if err != nil {
		return fmt.Errorf("write history slot: %w", err)
	}
	return nil
}
