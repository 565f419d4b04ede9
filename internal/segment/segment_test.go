package segment

import (
	"errors"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor_IsStable(t *testing.T) {
	assert.Equal(t, KeyFor("shmfile"), KeyFor("shmfile"))
	assert.NotEqual(t, KeyFor("shmfile"), KeyFor("other"))
	assert.Len(t, KeyFor("x").String(), 36)
}

func TestAttach_CreateIfAbsentSharesTable(t *testing.T) {
	reg := NewRegistry()
	key := KeyFor("shared")

	first, err := reg.Attach(key, 10, Create)
	require.NoError(t, err)
	second, err := reg.Attach(key, 5, Create)
	require.NoError(t, err)

	assert.Same(t, first.Table(), second.Table())
	assert.Equal(t, 10, second.Table().Capacity())
	assert.Equal(t, Stats{Segments: 1, Attachments: 2}, reg.Stats())

	first.Detach()
	second.Detach()
	assert.Equal(t, Stats{Segments: 1}, reg.Stats(), "segments outlive their attachments until destroyed")
}

func TestAttach_Errors(t *testing.T) {
	reg := NewRegistry()
	key := KeyFor("errors")

	_, err := reg.Attach(key, 4, 0)
	require.ErrorIs(t, err, ErrNotExist)

	_, err = reg.Attach(key, 0, Create)
	require.Error(t, err)

	seg, err := reg.Attach(key, 4, Create|Exclusive)
	require.NoError(t, err)
	defer seg.Detach()

	_, err = reg.Attach(key, 4, Create|Exclusive)
	require.ErrorIs(t, err, ErrExist)

	_, err = reg.Attach(key, 8, 0)
	require.ErrorIs(t, err, ErrSize)
}

func TestDetach_IsIdempotent(t *testing.T) {
	reg := NewRegistry()
	key := KeyFor("twice")
	a, err := reg.Attach(key, 1, Create)
	require.NoError(t, err)
	b, err := reg.Attach(key, 1, Create)
	require.NoError(t, err)

	a.Detach()
	a.Detach()
	assert.Equal(t, 1, reg.Stats().Attachments)
	b.Detach()
}

func TestDestroy_KeepsAttachedTableUntilLastDetach(t *testing.T) {
	reg := NewRegistry()
	key := KeyFor("destroy")
	seg, err := reg.Attach(key, 3, Create)
	require.NoError(t, err)
	tbl := seg.Table()

	require.NoError(t, reg.Destroy(key))
	assert.Equal(t, Stats{Orphans: 1, Attachments: 1}, reg.Stats())
	assert.Same(t, tbl, seg.Table())

	// The key is free again; a new attach creates a fresh segment.
	fresh, err := reg.Attach(key, 3, Create)
	require.NoError(t, err)
	assert.NotSame(t, tbl, fresh.Table())
	fresh.Detach()

	seg.Detach()
	assert.Equal(t, Stats{Segments: 1}, reg.Stats())

	require.NoError(t, reg.Destroy(key))
	assert.Equal(t, Stats{}, reg.Stats())
	require.ErrorIs(t, reg.Destroy(key), ErrNotExist)
}

func TestWith_DetachesOnEveryPath(t *testing.T) {
	reg := NewRegistry()
	key := KeyFor("with")

	var seen *table.Table
	err := With(reg, key, 2, func(tbl *table.Table) error {
		seen = tbl
		assert.Equal(t, 1, reg.Stats().Attachments)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Zero(t, reg.Stats().Attachments)

	boom := errors.New("boom")
	err = With(reg, key, 2, func(*table.Table) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, reg.Stats().Attachments)

	assert.Panics(t, func() {
		_ = With(reg, key, 2, func(*table.Table) error { panic("worker bug") })
	})
	assert.Zero(t, reg.Stats().Attachments)

	err = With(reg, key, 50, func(*table.Table) error { return nil })
	require.ErrorIs(t, err, ErrSize)
}
