package seed

import (
	"database/sql"
	"fmt"
)

const defaultSlot = "default"

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way: it makes sure the
// default history slot exists with an empty snapshot list, so a fresh
// database starts from a well-formed slot instead of a missing row.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	result, err := tx.Exec(`
		INSERT INTO history_slots (slot, payload)
		VALUES (?, '[]')
		ON CONFLICT(slot) DO NOTHING
	`, defaultSlot)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, fmt.Errorf("ensure default history slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, fmt.Errorf("read seed result: %w", err)
	}
	stats.Inserts = int(affected)

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}
