package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TrevorS/pointindex"
	"github.com/TrevorS/pointindex/pdb"
)

// loadEntries reads a point set. .pdb files are read as atoms keyed by
// serial number; anything else is CSV with rows "id,x,y[,z]". A header row
// whose first field is not an integer is skipped.
func loadEntries(path string, dims int) ([]pointindex.Entry, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdb") {
		atoms, err := pdb.Open(path)
		if err != nil {
			return nil, err
		}
		return atoms.Entries(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f, dims)
}

func readCSV(r io.Reader, dims int) ([]pointindex.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var entries []pointindex.Entry
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("row %d: bad id %q", row, rec[0])
		}
		if len(rec)-1 != dims {
			return nil, fmt.Errorf("row %d: want %d coordinates, got %d", row, dims, len(rec)-1)
		}
		p, err := parsePoint(strings.Join(rec[1:], ","), dims)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		entries = append(entries, pointindex.Entry{ID: id, Point: p})
	}
}

// parsePoint parses "x,y" or "x,y,z".
func parsePoint(s string, dims int) (pointindex.Point, error) {
	var p pointindex.Point
	parts := strings.Split(s, ",")
	if len(parts) != dims {
		return p, fmt.Errorf("point %q: want %d coordinates", s, dims)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return p, fmt.Errorf("point %q: %w", s, err)
		}
		p[i] = v
	}
	return p, nil
}

// parseBox parses "x0,y0[,z0]:x1,y1[,z1]".
func parseBox(s string, dims int) (pointindex.Box, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return pointindex.Box{}, fmt.Errorf("box %q: want min:max", s)
	}
	a, err := parsePoint(lo, dims)
	if err != nil {
		return pointindex.Box{}, err
	}
	b, err := parsePoint(hi, dims)
	if err != nil {
		return pointindex.Box{}, err
	}
	return pointindex.Box{Min: a, Max: b}, nil
}

// parseSphere parses "x,y[,z]:r".
func parseSphere(s string, dims int) (pointindex.Sphere, error) {
	c, r, ok := strings.Cut(s, ":")
	if !ok {
		return pointindex.Sphere{}, fmt.Errorf("sphere %q: want center:radius", s)
	}
	center, err := parsePoint(c, dims)
	if err != nil {
		return pointindex.Sphere{}, err
	}
	radius, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
	if err != nil {
		return pointindex.Sphere{}, fmt.Errorf("sphere %q: %w", s, err)
	}
	return pointindex.Sphere{Center: center, Radius: radius}, nil
}
