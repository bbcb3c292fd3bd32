// Package pdb reads atom coordinates from Protein Data Bank files so that
// molecular structures can be loaded into a point index.
//
// Only ATOM and HETATM records of the first model are read; every other
// record is skipped.
package pdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/TrevorS/pointindex"
)

// Atom is one ATOM or HETATM record.
type Atom struct {
	Serial      int
	Name        string
	ResidueName string
	ChainID     string
	ResidueSeq  int
	Hetero      bool
	Point       pointindex.Point
	Occupancy   float64
	BFactor     float64
	Element     string
}

// Atoms is a parsed structure in file order.
type Atoms []Atom

// Entries converts the atoms to index entries keyed by serial number.
func (as Atoms) Entries() []pointindex.Entry {
	out := make([]pointindex.Entry, len(as))
	for i, a := range as {
		out[i] = pointindex.Entry{ID: a.Serial, Point: a.Point}
	}
	return out
}

// ParseError reports a malformed record.
type ParseError struct {
	Line   int
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pdb: line %d: %s: %s", e.Line, e.Field, e.Reason)
}

// Open parses the file at path.
func Open(path string) (Atoms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads ATOM and HETATM records from r until the end of the first
// model.
func Parse(r io.Reader) (Atoms, error) {
	var atoms Atoms
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		record := field(line, 0, 6)
		switch record {
		case "ATOM", "HETATM":
			a, err := parseAtom(line, lineno)
			if err != nil {
				return nil, err
			}
			a.Hetero = record == "HETATM"
			atoms = append(atoms, a)
		case "ENDMDL", "END":
			return atoms, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("pdb: read line %d: %w", lineno+1, err)
	}
	return atoms, nil
}

func parseAtom(line string, lineno int) (Atom, error) {
	if len(line) < 54 {
		return Atom{}, &ParseError{Line: lineno, Field: "record", Reason: "too short to hold x, y and z"}
	}
	var a Atom
	var err error
	if a.Serial, err = parseInt(line, lineno, "serial", 6, 11); err != nil {
		return Atom{}, err
	}
	a.Name = field(line, 12, 16)
	a.ResidueName = field(line, 17, 20)
	a.ChainID = field(line, 21, 22)
	if s := field(line, 22, 26); s != "" {
		if a.ResidueSeq, err = parseInt(line, lineno, "residue sequence", 22, 26); err != nil {
			return Atom{}, err
		}
	}
	for i, col := range [3]int{30, 38, 46} {
		if a.Point[i], err = parseFloat(line, lineno, string("xyz"[i]), col, col+8); err != nil {
			return Atom{}, err
		}
	}
	a.Occupancy = 1
	if field(line, 54, 60) != "" {
		if a.Occupancy, err = parseFloat(line, lineno, "occupancy", 54, 60); err != nil {
			return Atom{}, err
		}
	}
	if field(line, 60, 66) != "" {
		if a.BFactor, err = parseFloat(line, lineno, "b-factor", 60, 66); err != nil {
			return Atom{}, err
		}
	}
	a.Element = field(line, 76, 78)
	return a, nil
}

// field returns the trimmed text in columns [start, end), clipped to the
// line length.
func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[start:min(end, len(line))])
}

func parseInt(line string, lineno int, name string, start, end int) (int, error) {
	v, err := strconv.Atoi(field(line, start, end))
	if err != nil {
		return 0, &ParseError{Line: lineno, Field: name, Reason: fmt.Sprintf("not an integer: %q", field(line, start, end))}
	}
	return v, nil
}

func parseFloat(line string, lineno int, name string, start, end int) (float64, error) {
	v, err := strconv.ParseFloat(field(line, start, end), 64)
	if err != nil {
		return 0, &ParseError{Line: lineno, Field: name, Reason: fmt.Sprintf("not a number: %q", field(line, start, end))}
	}
	return v, nil
}
