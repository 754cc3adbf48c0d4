package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lookalike/internal/report"
	"github.com/scrypster/lookalike/pkg/types"
)

func sampleAnalysis() *types.Analysis {
	return &types.Analysis{
		RunID:           "run-1",
		StrongThreshold: 5,
		PairsConsidered: 6,
		Pairs: []types.PairEvaluation{
			{
				UID1: "c", UID2: "d",
				Subscription: types.FacetScore{Points: 2, Evidence: []types.Evidence{{Label: "subscription_plan", Score: 1}, {Label: "payment_method", Score: 1}}},
				Total:        2,
				Tier:         types.TierWeak,
			},
			{
				UID1: "a", UID2: "b",
				Personal:   types.FacetScore{Points: 2, Evidence: []types.Evidence{{Label: "first_name", Score: 0.83}, {Label: "gender", Score: 1}}},
				Address:    types.FacetScore{Points: 2, Evidence: []types.Evidence{{Label: "city", Score: 1}, {Label: "location", Score: 1}}},
				Employment: types.FacetScore{Points: 1, Evidence: []types.Evidence{{Label: "key_skill", Score: 0.9}}},
				Total:      5,
				Tier:       types.TierStrong,
			},
			{
				UID1: "a", UID2: "c",
				Personal: types.FacetScore{Points: 2, Evidence: []types.Evidence{{Label: "gender", Score: 1}, {Label: "date_of_birth", Score: 1}}},
				Total:    2,
				Tier:     types.TierWeak,
			},
		},
		StrongGroups: []types.Group{{Ordinal: 1, Tier: types.TierStrong, Members: []string{"a", "b"}}},
		WeakGroups:   []types.Group{{Ordinal: 1, Tier: types.TierWeak, Members: []string{"a", "c", "d"}}},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWritePairs(t *testing.T) {
	a := sampleAnalysis()
	var buf bytes.Buffer
	require.NoError(t, report.WritePairs(&buf, a.Pairs))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 4)
	assert.Equal(t, report.PairHeader, records[0])

	assert.Equal(t, []string{
		"a", "b",
		"first_name:0.83; gender:1.00", "2",
		"city:1.00; location:1.00", "2",
		"key_skill:0.90", "1",
		"", "0",
		"5", "Strong",
	}, records[1])
	assert.Equal(t, []string{"a", "c"}, records[2][:2])
	assert.Equal(t, "Weak", records[2][11])
	assert.Equal(t, []string{"c", "d"}, records[3][:2])

	assert.Equal(t, "c", a.Pairs[0].UID1, "input order is left untouched")
}

func TestWritePairs_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WritePairs(&buf, nil))
	assert.Equal(t, [][]string{report.PairHeader}, readCSV(t, buf.Bytes()))
}

func TestWriteGroups(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteGroups(&buf, []types.Group{
		{Ordinal: 1, Members: []string{"a", "c", "d"}},
		{Ordinal: 2, Members: []string{"e", "f"}},
	}))

	assert.Equal(t, [][]string{
		{"Group", "User_UIDs"},
		{"1", "a, c, d"},
		{"2", "e, f"},
	}, readCSV(t, buf.Bytes()))
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output_csv")
	paths, err := report.WriteAll(dir, sampleAnalysis())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, report.PairsFilename),
		filepath.Join(dir, report.StrongGroupsFilename),
		filepath.Join(dir, report.WeakGroupsFilename),
	}, paths)

	strong, err := os.ReadFile(filepath.Join(dir, report.StrongGroupsFilename))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Group", "User_UIDs"}, {"1", "a, b"}}, readCSV(t, strong))

	pairs, err := os.ReadFile(filepath.Join(dir, report.PairsFilename))
	require.NoError(t, err)
	assert.Len(t, readCSV(t, pairs), 4)
}

func TestWriteAll_NilAnalysis(t *testing.T) {
	_, err := report.WriteAll(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := report.Summarize(sampleAnalysis())

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 6, s.PairsConsidered)
	assert.Equal(t, 3, s.PairsExcluded)

	assert.Equal(t, report.TierSummary{Pairs: 1, Groups: 1, Sizes: []int{2}, Users: 2, Largest: 2}, s.Strong)
	assert.Equal(t, report.TierSummary{Pairs: 2, Groups: 1, Sizes: []int{3}, Users: 3, Largest: 3}, s.Weak)
}

func TestSummarize_Empty(t *testing.T) {
	s := report.Summarize(&types.Analysis{StrongGroups: []types.Group{}, WeakGroups: []types.Group{}})
	assert.Equal(t, 0, s.Strong.Groups)
	assert.Equal(t, []int{}, s.Strong.Sizes)
	assert.Equal(t, 0, s.PairsExcluded)
}
