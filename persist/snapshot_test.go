package persist

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/TrevorS/pointindex"
)

func testIndex(t *testing.T, n, dims int, metric pointindex.Metric) *pointindex.Index {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(n)))
	entries := make([]pointindex.Entry, n)
	for i := range entries {
		var p pointindex.Point
		for d := 0; d < dims; d++ {
			p[d] = rng.Float64() * 50
		}
		entries[i] = pointindex.Entry{ID: 3*i + 1, Point: p}
	}
	cfg := pointindex.DefaultConfig()
	cfg.Dims = dims
	cfg.MaxEntries = 6
	cfg.MinEntries = 2
	cfg.Metric = metric
	ix, err := pointindex.BulkLoad(entries, cfg)
	require.NoError(t, err)
	return ix
}

func assertSameAnswers(t *testing.T, a, b *pointindex.Index) {
	t.Helper()
	assert.Equal(t, a.Entries(), b.Entries())
	assert.Equal(t, a.Dims(), b.Dims())
	assert.Equal(t, a.Config().Metric, b.Config().Metric)
	c := pointindex.P2(25, 25)
	wa, err := a.Within(c, 10)
	require.NoError(t, err)
	wb, err := b.Within(c, 10)
	require.NoError(t, err)
	assert.Equal(t, wa, wb)
}

func TestEncodeDecode(t *testing.T) {
	ix := testIndex(t, 200, 2, pointindex.ManhattanMetric{})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, ix))

	// base shape settings are replaced by the snapshot's
	restored, err := Decode(&buf, pointindex.DefaultConfig())
	require.NoError(t, err)
	assertSameAnswers(t, ix, restored)
	assert.Equal(t, 6, restored.Config().MaxEntries)
	require.NoError(t, restored.Check())
}

func TestEncodeDecode_Empty(t *testing.T) {
	ix, err := pointindex.New(pointindex.DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, ix))
	restored, err := Decode(&buf, pointindex.Config{})
	require.NoError(t, err)
	assert.Zero(t, restored.Len())
}

func TestFromIndex_FlatCoords(t *testing.T) {
	ix := testIndex(t, 5, 3, pointindex.EuclideanMetric{})
	snap := FromIndex(ix)
	assert.Equal(t, FormatVersion, snap.Version)
	assert.Equal(t, "euclidean", snap.Metric)
	assert.Equal(t, []int{1, 4, 7, 10, 13}, snap.IDs)
	require.Len(t, snap.Coords, 15)

	entries, err := snap.Entries()
	require.NoError(t, err)
	assert.Equal(t, ix.Entries(), entries)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0xc1, 0x00, 0x13}), pointindex.Config{})
	assert.ErrorIs(t, err, ErrCorrupt)

	snap := FromIndex(testIndex(t, 4, 2, pointindex.EuclideanMetric{}))
	snap.Coords = snap.Coords[:len(snap.Coords)-1]
	_, err = snap.Restore(pointindex.Config{})
	assert.ErrorIs(t, err, ErrCorrupt)

	snap = FromIndex(testIndex(t, 4, 2, pointindex.EuclideanMetric{}))
	snap.Metric = "cosine"
	_, err = snap.Restore(pointindex.Config{})
	assert.ErrorIs(t, err, ErrCorrupt)

	snap = FromIndex(testIndex(t, 4, 2, pointindex.EuclideanMetric{}))
	snap.Dims = 5
	_, err = snap.Entries()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	snap := FromIndex(testIndex(t, 4, 3, pointindex.EuclideanMetric{}))
	snap.Version = FormatVersion + 1

	data, err := msgpack.Marshal(&snap)
	require.NoError(t, err)
	_, err = Decode(bytes.NewReader(data), pointindex.Config{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecode_DuplicateIdentifier(t *testing.T) {
	snap := FromIndex(testIndex(t, 4, 3, pointindex.EuclideanMetric{}))
	snap.IDs[1] = snap.IDs[0]
	_, err := snap.Restore(pointindex.Config{})
	assert.ErrorIs(t, err, pointindex.ErrDuplicateIdentifier)
}

func TestWriteReadFile(t *testing.T) {
	ix := testIndex(t, 300, 3, pointindex.MinkowskiMetric{P: 3})
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.msgpack")

	require.NoError(t, WriteFile(path, ix))
	restored, err := ReadFile(path, pointindex.Config{Workers: 2})
	require.NoError(t, err)
	assertSameAnswers(t, ix, restored)
	assert.Equal(t, 2, restored.Config().Workers)

	// no temporary files left behind
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"), pointindex.Config{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
