package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/model"
)

// ModelInfo summarizes a stored model.
type ModelInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CreatedAt  int64  `json:"created_at"`
	Attributes int    `json:"attributes"`
	Versions   int    `json:"versions"`
}

// Location identifies one stored version.
type Location struct {
	Model     string `json:"model"`
	Attribute string `json:"attribute"`
	Ordinal   int    `json:"ordinal"`
}

// Load reads a model and verifies every chain before returning it.
// Returns ErrNotFound if no model has that name, and a *chain.IntegrityError
// naming the attribute if any stored row was tampered with.
func (s *Store) Load(ctx context.Context, name string, opts ...model.Option) (*model.Model, error) {
	modelID, err := s.modelID(ctx, name)
	if err != nil {
		return nil, err
	}

	names, err := s.attributeNames(ctx, modelID)
	if err != nil {
		return nil, err
	}

	// Loaded chains keep appending with the clock the caller configured
	clock := model.New(opts...).Clock()

	attrs := make([]model.NamedChain, 0, len(names))
	for _, attr := range names {
		records, err := s.readRecords(ctx, modelID, attr)
		if err != nil {
			return nil, err
		}
		c, err := chain.Restore(records, chain.WithClock(clock))
		if err != nil {
			var ie *chain.IntegrityError
			if errors.As(err, &ie) {
				return nil, ie.WithAttribute(attr)
			}
			return nil, fmt.Errorf("load %s.%s: %w", name, attr, err)
		}
		attrs = append(attrs, model.NamedChain{Name: attr, Chain: c})
	}

	return model.FromChains(attrs, opts...)
}

// Verify loads a model only to check its integrity.
func (s *Store) Verify(ctx context.Context, name string) error {
	_, err := s.Load(ctx, name)
	return err
}

// List returns every stored model ordered by name.
func (s *Store) List(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.created_at,
			(SELECT COUNT(*) FROM attributes a WHERE a.model_id = m.id),
			(SELECT COUNT(*) FROM versions v WHERE v.model_id = m.id)
		FROM models m
		ORDER BY m.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	infos := []ModelInfo{}
	for rows.Next() {
		var info ModelInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.CreatedAt, &info.Attributes, &info.Versions); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate models: %w", err)
	}
	return infos, nil
}

// FindDigest returns every stored version carrying the given digest.
// Genesis entries share one digest, so it matches every attribute.
func (s *Store) FindDigest(ctx context.Context, digest string) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.name, v.attribute, v.ordinal
		FROM versions v
		JOIN models m ON m.id = v.model_id
		WHERE v.digest = ?
		ORDER BY m.name COLLATE BINARY ASC, v.attribute COLLATE BINARY ASC, v.ordinal ASC
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("query digest: %w", err)
	}
	defer rows.Close()

	locations := []Location{}
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.Model, &loc.Attribute, &loc.Ordinal); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return locations, nil
}

func (s *Store) modelID(ctx context.Context, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM models WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("lookup model: %w", err)
	}
	return id, nil
}

func (s *Store) attributeNames(ctx context.Context, modelID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM attributes
		WHERE model_id = ?
		ORDER BY position ASC, name COLLATE BINARY ASC
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}
	return names, nil
}

// readRecords returns the raw, unverified rows of one attribute in ordinal order.
func (s *Store) readRecords(ctx context.Context, modelID, attribute string) ([]chain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, value, previous_digest, timestamp, digest
		FROM versions
		WHERE model_id = ? AND attribute = ?
		ORDER BY ordinal ASC
	`, modelID, attribute)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var records []chain.Record
	for rows.Next() {
		var (
			r     chain.Record
			value string
		)
		if err := rows.Scan(&r.Ordinal, &value, &r.PreviousDigest, &r.Timestamp, &r.Digest); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		r.Value = json.RawMessage(value)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return records, nil
}
