package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/model"
)

// SaveResult describes what Save wrote.
type SaveResult struct {
	ModelID  string
	Created  bool // true if the model row was created by this call
	Versions int  // number of version rows inserted
}

// Save appends every version of m that the archive does not hold yet.
//
// Runs in a single transaction. Existing rows are never modified: if the
// stored tip of an attribute is not a prefix of its in-memory chain, Save
// returns a *DivergenceError and writes nothing.
func (s *Store) Save(ctx context.Context, name string, m *model.Model) (SaveResult, error) {
	var result SaveResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("save model: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result.ModelID, result.Created, err = ensureModel(ctx, tx, name)
	if err != nil {
		return result, fmt.Errorf("save model: %w", err)
	}

	for position, attr := range m.Snapshot() {
		written, err := saveAttribute(ctx, tx, name, result.ModelID, position, attr)
		if err != nil {
			return result, err
		}
		result.Versions += written
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("save model: commit: %w", err)
	}

	slog.Info("versions written",
		"model", name,
		"model_id", result.ModelID,
		"created", result.Created,
		"count", result.Versions,
	)
	return result, nil
}

// ensureModel returns the id of the named model, creating the row if needed.
func ensureModel(ctx context.Context, tx *sql.Tx, name string) (id string, created bool, err error) {
	err = tx.QueryRowContext(ctx, `SELECT id FROM models WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("lookup model: %w", err)
	}

	id = uuid.Must(uuid.NewV7()).String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO models (id, name, created_at)
		VALUES (?, ?, ?)
	`, id, name, time.Now().Unix())
	if err != nil {
		return "", false, fmt.Errorf("insert model: %w", err)
	}
	return id, true, nil
}

func saveAttribute(ctx context.Context, tx *sql.Tx, modelName, modelID string, position int, attr model.NamedChain) (int, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO attributes (model_id, name, position)
		VALUES (?, ?, ?)
		ON CONFLICT(model_id, name) DO NOTHING
	`, modelID, attr.Name, position)
	if err != nil {
		return 0, fmt.Errorf("save attribute %q: %w", attr.Name, err)
	}

	// Find the stored tip
	var (
		stored    int
		tipDigest sql.NullString
	)
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), (
			SELECT digest FROM versions
			WHERE model_id = ? AND attribute = ?
			ORDER BY ordinal DESC LIMIT 1
		)
		FROM versions
		WHERE model_id = ? AND attribute = ?
	`, modelID, attr.Name, modelID, attr.Name).Scan(&stored, &tipDigest)
	if err != nil {
		return 0, fmt.Errorf("save attribute %q: read tip: %w", attr.Name, err)
	}

	if stored > attr.Chain.Len() {
		return 0, &DivergenceError{Model: modelName, Attribute: attr.Name, Ordinal: stored - 1, Stored: tipDigest.String}
	}
	if stored > 0 {
		v, _ := attr.Chain.At(stored - 1)
		if v.Digest() != tipDigest.String {
			return 0, &DivergenceError{
				Model:     modelName,
				Attribute: attr.Name,
				Ordinal:   stored - 1,
				Stored:    tipDigest.String,
				Memory:    v.Digest(),
			}
		}
	}

	written := 0
	for i, v := range attr.Chain.All() {
		if i < stored {
			continue
		}
		if err := insertVersion(ctx, tx, modelID, attr.Name, v.Record()); err != nil {
			return 0, fmt.Errorf("save attribute %q: %w", attr.Name, err)
		}
		written++
	}
	return written, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, modelID, attribute string, r chain.Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO versions
		(model_id, attribute, ordinal, value, previous_digest, timestamp, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		modelID,
		attribute,
		r.Ordinal,
		string(r.Value),
		r.PreviousDigest,
		r.Timestamp,
		r.Digest,
	)
	if err != nil {
		return fmt.Errorf("insert ordinal %d: %w", r.Ordinal, err)
	}
	return nil
}
