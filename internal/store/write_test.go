package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/payload"
)

func TestSave_NewModel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := createTestModel("name", "Ada", "email", "ada@example.com")
	result, err := s.Save(ctx, "user-1", m)
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Len(t, result.ModelID, 36)
	assert.Equal(t, 4, result.Versions, "genesis + one value per attribute")
}

func TestSave_IsIncremental(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := createTestModel("name", "Ada")
	first, err := s.Save(ctx, "user-1", m)
	require.NoError(t, err)

	// Saving again writes nothing
	again, err := s.Save(ctx, "user-1", m)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.ModelID, again.ModelID)
	assert.Equal(t, 0, again.Versions)

	m.Set("name", payload.String("Ada Lovelace"))
	m.Set("born", payload.Int(1815))
	next, err := s.Save(ctx, "user-1", m)
	require.NoError(t, err)
	assert.Equal(t, 3, next.Versions)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM versions`).Scan(&count))
	assert.Equal(t, 5, count)
}

func TestSave_Divergence(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "user-1", createTestModel("name", "Ada"))
	require.NoError(t, err)

	// A different history for the same attribute
	_, err = s.Save(ctx, "user-1", createTestModel("name", "Grace"))
	var de *DivergenceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "name", de.Attribute)
	assert.Equal(t, 1, de.Ordinal)
	assert.NotEqual(t, de.Stored, de.Memory)
}

func TestSave_StaleModel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := createTestModel("name", "Ada")
	m.Set("name", payload.String("Ada Lovelace"))
	_, err := s.Save(ctx, "user-1", m)
	require.NoError(t, err)

	stale := createTestModel("name", "Ada")
	_, err = s.Save(ctx, "user-1", stale)

	var de *DivergenceError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, de.Memory)
	assert.Contains(t, de.Error(), "in-memory chain is shorter")
}

func TestSave_DivergenceWritesNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "user-1", createTestModel("a", "1"))
	require.NoError(t, err)

	// Attribute "b" is new, but "a" diverges: the whole save is rolled back
	bad := createTestModel("a", "2", "b", "3")
	_, err = s.Save(ctx, "user-1", bad)
	require.Error(t, err)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM versions WHERE attribute = 'b'`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestSave_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "user-1", createTestModel("a", "1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSave_RecordsFieldsVerbatim(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := createTestModel("name", "Ada")
	_, err := s.Save(ctx, "user-1", m)
	require.NoError(t, err)

	var (
		value, prev, digest string
		timestamp           int64
	)
	err = s.db.QueryRow(`
		SELECT value, previous_digest, timestamp, digest FROM versions
		WHERE attribute = 'name' AND ordinal = 1
	`).Scan(&value, &prev, &timestamp, &digest)
	require.NoError(t, err)

	c, _ := m.Chain("name")
	v, _ := c.At(1)
	assert.Equal(t, `"Ada"`, value)
	assert.Equal(t, chain.GenesisDigest, prev)
	assert.Equal(t, v.Timestamp(), timestamp)
	assert.Equal(t, v.Digest(), digest)
}
