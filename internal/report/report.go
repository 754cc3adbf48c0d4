// Package report writes analysis results as CSV tables and summarizes group
// statistics for charting.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/scrypster/lookalike/pkg/types"
)

// Output file names written by WriteAll.
const (
	PairsFilename        = "pairwise_similarities.csv"
	StrongGroupsFilename = "strong_groups.csv"
	WeakGroupsFilename   = "weak_groups.csv"
)

// MemberSeparator joins group member UIDs in the group tables.
const MemberSeparator = ", "

// PairHeader is the header row of the pairwise results table.
var PairHeader = []string{
	"User1", "User2",
	"Personal_Similar", "Personal_Points",
	"Address_Similar", "Address_Points",
	"Employment_Similar", "Employment_Points",
	"Subscription_Similar", "Subscription_Points",
	"Total_Points", "Connection_Type",
}

// GroupHeader is the header row of the group tables.
var GroupHeader = []string{"Group", "User_UIDs"}

// WritePairs writes one row per pair, ordered by (UID1, UID2).
func WritePairs(w io.Writer, pairs []types.PairEvaluation) error {
	sorted := slices.Clone(pairs)
	slices.SortFunc(sorted, func(a, b types.PairEvaluation) int {
		if c := strings.Compare(a.UID1, b.UID1); c != 0 {
			return c
		}
		return strings.Compare(a.UID2, b.UID2)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(PairHeader); err != nil {
		return fmt.Errorf("report: failed to write pair header: %w", err)
	}
	for i := range sorted {
		p := &sorted[i]
		record := []string{p.UID1, p.UID2}
		for _, f := range types.Facets {
			score := p.Facet(f)
			record = append(record, score.Summary(), strconv.Itoa(score.Points))
		}
		record = append(record, strconv.Itoa(p.Total), p.Tier.Label())
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("report: failed to write pair %s/%s: %w", p.UID1, p.UID2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGroups writes one row per group with its 1-based number and members.
func WriteGroups(w io.Writer, groups []types.Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GroupHeader); err != nil {
		return fmt.Errorf("report: failed to write group header: %w", err)
	}
	for _, g := range groups {
		if err := cw.Write([]string{strconv.Itoa(g.Ordinal), strings.Join(g.Members, MemberSeparator)}); err != nil {
			return fmt.Errorf("report: failed to write group %d: %w", g.Ordinal, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAll writes the pairwise table and both group tables into dir,
// creating it if needed. It returns the paths written.
func WriteAll(dir string, analysis *types.Analysis) ([]string, error) {
	if analysis == nil {
		return nil, fmt.Errorf("report: analysis is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: failed to create %s: %w", dir, err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{PairsFilename, func(w io.Writer) error { return WritePairs(w, analysis.Pairs) }},
		{StrongGroupsFilename, func(w io.Writer) error { return WriteGroups(w, analysis.StrongGroups) }},
		{WeakGroupsFilename, func(w io.Writer) error { return WriteGroups(w, analysis.WeakGroups) }},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: failed to close %s: %w", path, err)
	}
	return nil
}
