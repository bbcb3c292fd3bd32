// Package persist converts a point index to and from stored snapshots.
//
// A snapshot holds the index configuration and every live entry in
// ascending identifier order. Restoring goes through pointindex.BulkLoad,
// so a restored index answers every query exactly like the original,
// though its internal tree may differ.
package persist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/TrevorS/pointindex"
)

// FormatVersion is written into every snapshot.
const FormatVersion = 1

var (
	ErrUnsupportedVersion = errors.New("persist: unsupported snapshot version")
	ErrCorrupt            = errors.New("persist: snapshot data corrupted")
	ErrSnapshotNotFound   = errors.New("persist: snapshot not found")
)

// Snapshot is the stored form of an index. Coords is flat row-major with
// Dims values per entry, aligned with IDs.
type Snapshot struct {
	Version    int       `msgpack:"version"`
	Dims       int       `msgpack:"dims"`
	MinEntries int       `msgpack:"min_entries"`
	MaxEntries int       `msgpack:"max_entries"`
	Metric     string    `msgpack:"metric"`
	IDs        []int     `msgpack:"ids"`
	Coords     []float64 `msgpack:"coords"`
}

// FromIndex captures the configuration and entries of ix.
func FromIndex(ix *pointindex.Index) Snapshot {
	cfg := ix.Config()
	entries := ix.Entries()
	s := Snapshot{
		Version:    FormatVersion,
		Dims:       cfg.Dims,
		MinEntries: cfg.MinEntries,
		MaxEntries: cfg.MaxEntries,
		Metric:     cfg.Metric.Name(),
		IDs:        make([]int, len(entries)),
		Coords:     make([]float64, 0, len(entries)*cfg.Dims),
	}
	for i, e := range entries {
		s.IDs[i] = e.ID
		s.Coords = append(s.Coords, e.Point[:cfg.Dims]...)
	}
	return s
}

// Entries unpacks the flat coordinate array.
func (s Snapshot) Entries() ([]pointindex.Entry, error) {
	if s.Dims != 2 && s.Dims != 3 {
		return nil, fmt.Errorf("%w: dims %d", ErrCorrupt, s.Dims)
	}
	if len(s.Coords) != len(s.IDs)*s.Dims {
		return nil, fmt.Errorf("%w: %d coordinates for %d entries of dims %d", ErrCorrupt, len(s.Coords), len(s.IDs), s.Dims)
	}
	entries := make([]pointindex.Entry, len(s.IDs))
	for i, id := range s.IDs {
		var p pointindex.Point
		copy(p[:], s.Coords[i*s.Dims:(i+1)*s.Dims])
		entries[i] = pointindex.Entry{ID: id, Point: p}
	}
	return entries, nil
}

// Restore bulk-loads the snapshot. base supplies the settings a snapshot
// does not carry (Workers, Logger); its shape settings are replaced by the
// snapshot's.
func (s Snapshot) Restore(base pointindex.Config) (*pointindex.Index, error) {
	if s.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	metric, err := pointindex.MetricByName(s.Metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	cfg := base
	cfg.Dims = s.Dims
	cfg.MinEntries = s.MinEntries
	cfg.MaxEntries = s.MaxEntries
	cfg.Metric = metric
	return pointindex.BulkLoad(entries, cfg)
}

// Encode writes ix to w in msgpack format.
func Encode(w io.Writer, ix *pointindex.Index) error {
	snap := FromIndex(ix)
	return msgpack.NewEncoder(w).Encode(&snap)
}

// Decode reads a msgpack snapshot from r and restores it.
func Decode(r io.Reader, base pointindex.Config) (*pointindex.Index, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snap.Restore(base)
}

// WriteFile encodes ix to path, creating parent directories as needed. The
// file is written under a temporary name and renamed into place.
func WriteFile(path string, ix *pointindex.Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := Encode(tmp, ix); err != nil {
		tmp.Close()
		return fmt.Errorf("persist: encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string, base pointindex.Config) (*pointindex.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, base)
}
