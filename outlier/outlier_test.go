package outlier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dasnellings/panelTools/amplicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearTable returns a table of n amplicons with total reads 200, 210, 220, ...
// and the given totals overridden.
func linearTable(n int, override map[int]int) amplicon.Table {
	t := amplicon.Table{Sample: "S1", Header: []string{"amplicon_id", "total_reads"}}
	for i := 0; i < n; i++ {
		total := 200 + 10*i
		if v, ok := override[i]; ok {
			total = v
		}
		id := fmt.Sprintf("AMP%d", i)
		t.Rows = append(t.Rows, amplicon.Row{ID: id, TotalReads: total, Fields: []string{id, fmt.Sprint(total)}})
	}
	return t
}

func TestClassify(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, Undercovered, opts.Classify(0.4))
	assert.Equal(t, Overcovered, opts.Classify(1.5))
	assert.Equal(t, Nominal, opts.Classify(1.0))
	assert.Equal(t, Nominal, opts.Classify(0.5))
	assert.Equal(t, Nominal, opts.Classify(1.3))
}

func TestDetectLinear(t *testing.T) {
	res, err := Detect(linearTable(20, nil), DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1, res.R2, 1e-9)
	assert.Empty(t, res.Under)
	assert.Empty(t, res.Over)
	for _, p := range res.Profiles {
		assert.InDelta(t, 1, p.Ratio, 1e-9)
	}
}

func TestDetectUndercovered(t *testing.T) {
	tbl := linearTable(20, map[int]int{7: 20})
	opts := DefaultOptions()
	opts.Threshold = 0.8
	res, err := Detect(tbl, opts)
	require.NoError(t, err)
	require.Len(t, res.Under, 1)
	assert.Equal(t, "AMP7", res.Under[0].ID)
	assert.Equal(t, 0, res.Under[0].Rank)
	assert.Less(t, res.Under[0].Ratio, 0.5)
	assert.Empty(t, res.Over)

	rows := Rows(tbl, res.Under)
	assert.Equal(t, []string{"AMP7", "20"}, rows[0].Fields)
}

func TestDetectOvercovered(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0.75
	res, err := Detect(linearTable(20, map[int]int{12: 600}), opts)
	require.NoError(t, err)
	assert.Empty(t, res.Under)
	require.Len(t, res.Over, 1)
	assert.Equal(t, "AMP12", res.Over[0].ID)
	assert.Greater(t, res.Over[0].Ratio, 1.3)
}

func TestDetectRestoresInputOrder(t *testing.T) {
	opts := Options{Threshold: 0, UnderRatio: 0.5, OverRatio: 1.3}
	res, err := Detect(linearTable(20, map[int]int{3: 20, 12: 700}), opts)
	require.NoError(t, err)
	require.NotEmpty(t, res.Under)
	for i := 1; i < len(res.Under); i++ {
		assert.Less(t, res.Under[i-1].Index, res.Under[i].Index)
	}
	for i := 1; i < len(res.Over); i++ {
		assert.Less(t, res.Over[i-1].Index, res.Over[i].Index)
	}
	var ids []string
	for _, p := range res.Over {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "AMP12")
}

func TestFitQualityGate(t *testing.T) {
	res, err := Detect(linearTable(20, map[int]int{3: 20, 12: 700}), DefaultOptions())
	var fitErr *FitQualityError
	require.True(t, errors.As(err, &fitErr), "expected FitQualityError, got %v", err)
	assert.InDelta(t, 0.712, fitErr.R2, 0.001)
	assert.Equal(t, 0.85, fitErr.Threshold)
	assert.Empty(t, res.Under)
	assert.Empty(t, res.Over)
}

func TestDegenerateInput(t *testing.T) {
	var fitErr *FitError
	_, err := Detect(linearTable(1, nil), DefaultOptions())
	assert.True(t, errors.As(err, &fitErr))

	_, err = Detect(linearTable(3, map[int]int{0: 0, 1: 0, 2: 0}), DefaultOptions())
	assert.True(t, errors.As(err, &fitErr))
}

func TestFlatCoverage(t *testing.T) {
	res, err := Detect(linearTable(10, map[int]int{0: 50, 1: 50, 2: 50, 3: 50, 4: 50, 5: 50, 6: 50, 7: 50, 8: 50, 9: 50}), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.R2)
	assert.Empty(t, res.Under)
	assert.Empty(t, res.Over)
}

func writeTable(t *testing.T, dir, name string, tbl amplicon.Table) string {
	file := filepath.Join(dir, name)
	amplicon.WriteFile(file, []string{"amplicon_id", "chrom", "total_reads"}, withChrom(tbl.Rows))
	return file
}

func withChrom(rows []amplicon.Row) []amplicon.Row {
	ans := make([]amplicon.Row, len(rows))
	for i := range rows {
		ans[i] = rows[i]
		ans[i].Fields = []string{rows[i].Fields[0], "chr1", rows[i].Fields[1]}
	}
	return ans
}

func TestBatch(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	good := writeTable(t, in, "good.tsv", linearTable(20, map[int]int{7: 20}))
	poor := writeTable(t, in, "poor.tsv", linearTable(20, map[int]int{3: 20, 12: 700}))
	tiny := writeTable(t, in, "tiny.tsv", linearTable(1, nil))

	opts := BatchOptions{Options: DefaultOptions(), OutDir: out, Plot: true, FigureWidth: 10, FigureHeight: 6}
	opts.Threshold = 0.8
	reports := Batch([]string{good, poor, tiny}, opts)
	require.Len(t, reports, 3)

	assert.NoError(t, reports[0].Err)
	assert.Equal(t, "good", reports[0].Sample)
	b, err := os.ReadFile(filepath.Join(out, UnderName("good")))
	require.NoError(t, err)
	assert.Equal(t, "amplicon_id\tchrom\ttotal_reads\nAMP7\tchr1\t20\n", string(b))
	b, err = os.ReadFile(filepath.Join(out, OverName("good")))
	require.NoError(t, err)
	assert.Equal(t, "amplicon_id\tchrom\ttotal_reads\n", string(b))
	_, err = os.Stat(filepath.Join(out, ScatterName("good")))
	assert.NoError(t, err)

	var fitQuality *FitQualityError
	assert.True(t, errors.As(reports[1].Err, &fitQuality))
	_, err = os.Stat(filepath.Join(out, UnderName("poor")))
	assert.True(t, os.IsNotExist(err), "no tables should be written for a sample failing the fit gate")

	var fitErr *FitError
	assert.True(t, errors.As(reports[2].Err, &fitErr))
}

func TestBatchMissingInput(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	good := writeTable(t, in, "good.tsv", linearTable(20, map[int]int{7: 20}))
	missing := filepath.Join(in, "missing.tsv")

	opts := BatchOptions{Options: DefaultOptions(), OutDir: out}
	opts.Threshold = 0.8
	reports := Batch([]string{good, missing}, opts)
	require.Len(t, reports, 2)
	assert.NoError(t, reports[0].Err)
	assert.Equal(t, "missing", reports[1].Sample)
	require.Error(t, reports[1].Err)
	assert.Contains(t, reports[1].Err.Error(), "missing.tsv")

	b, err := os.ReadFile(filepath.Join(out, UnderName("good")))
	require.NoError(t, err)
	assert.Equal(t, "amplicon_id\tchrom\ttotal_reads\nAMP7\tchr1\t20\n", string(b))
}

func TestReadTableErrors(t *testing.T) {
	dir := t.TempDir()
	noTotals := filepath.Join(dir, "a.tsv")
	require.NoError(t, os.WriteFile(noTotals, []byte("amplicon_id\treads\nA\t10\n"), 0644))
	_, err := amplicon.Read(noTotals)
	assert.Error(t, err)

	notInt := filepath.Join(dir, "b.tsv")
	require.NoError(t, os.WriteFile(notInt, []byte("amplicon_id\ttotal_reads\nA\tten\n"), 0644))
	_, err = amplicon.Read(notInt)
	assert.True(t, err != nil && strings.Contains(err.Error(), "not an integer"))
}
