package service

import (
	"os"
	"testing"

	"corpus-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCorpusPersistence_RoundTrip(t *testing.T) {
	p, err := NewCorpusPersistence(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	original := newTestManager(t, nil)
	buildFrom(t, original, "a", "b", "a", "c", "a")
	require.NoError(t, p.SaveCorpusManager(original))
	assert.True(t, p.SnapshotExists(original.Name()))

	restored := newTestManager(t, nil)
	require.NoError(t, p.LoadCorpusManager(restored, original.Name()))

	wantStats, _ := original.Stats()
	gotStats, err := restored.Stats()
	require.NoError(t, err)
	assert.Equal(t, wantStats.SnapshotID, gotStats.SnapshotID)
	assert.Equal(t, wantStats.SequenceLength, gotStats.SequenceLength)

	wantEntries, _ := original.Entries()
	gotEntries, err := restored.Entries()
	require.NoError(t, err)
	assert.Equal(t, wantEntries, gotEntries)

	result, err := restored.Search([]string{"a", "c"}, SearchLinear)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, result.Offsets)

	coocs, err := restored.Cooccurrences("a", 0)
	require.NoError(t, err)
	assert.Len(t, coocs, 2)
}

func TestCorpusPersistence_Errors(t *testing.T) {
	p, err := NewCorpusPersistence(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	cm := newTestManager(t, nil)

	assert.ErrorIs(t, p.SaveCorpusManager(cm), ErrNoCorpus)

	missing := newTestManager(t, func(cfg *config.Config) { cfg.Corpus.Name = "missing" })
	assert.ErrorIs(t, p.LoadCorpusManager(missing, "missing"), ErrNotFound)

	garbage := newTestManager(t, func(cfg *config.Config) { cfg.Corpus.Name = "garbage" })
	require.NoError(t, os.WriteFile(p.GetSnapshotPath("garbage"), []byte("not gob"), 0o644))
	assert.Error(t, p.LoadCorpusManager(garbage, "garbage"))
	assert.False(t, garbage.Loaded())
}

func TestCorpusPersistence_RejectsOtherName(t *testing.T) {
	p, err := NewCorpusPersistence(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	books := newTestManager(t, func(cfg *config.Config) { cfg.Corpus.Name = "books" })
	buildFrom(t, books, "a", "b")
	require.NoError(t, p.SaveCorpusManager(books))

	other := newTestManager(t, nil)
	err = p.LoadCorpusManager(other, "books")
	assert.Error(t, err)
	assert.False(t, other.Loaded())

	require.NoError(t, p.SaveCorpusManager(books))
	assert.False(t, p.SnapshotExists(other.Name()), "nothing was written under the other name")
}

func TestCorpusPersistence_Delete(t *testing.T) {
	p, err := NewCorpusPersistence(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	cm := newTestManager(t, nil)
	buildFrom(t, cm, "x")
	require.NoError(t, p.SaveCorpusManager(cm))

	require.NoError(t, p.DeleteSnapshot(cm.Name()))
	assert.False(t, p.SnapshotExists(cm.Name()))
	assert.NoError(t, p.DeleteSnapshot(cm.Name()), "deleting twice is not an error")
}
