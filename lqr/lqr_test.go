package lqr

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsLQR(t *testing.T) {
	var qv float64 = 30
	tests := []struct {
		fwd, rev float64
		lqr      bool
	}{
		{25, 40, true},
		{35, 20, true},
		{35, 35, false},
		{30, 10, true},
		{30, 30, false},
		{29.999, 30, true},
		{10, 10, true},
	}
	for _, test := range tests {
		r := Record{Forward: test.fwd, Reverse: test.rev}
		if IsLQR(r, qv) != test.lqr {
			t.Error("problem with LQR rule for", test.fwd, test.rev, "expected", test.lqr)
		}
	}
}

func TestClassifyPreservesOrder(t *testing.T) {
	records := []Record{
		{Contig: "chr1", Start: 10, Stop: 100, Forward: 25, Reverse: 40},
		{Contig: "chr1", Start: 200, Stop: 300, Forward: 35, Reverse: 35},
		{Contig: "chr2", Start: 5, Stop: 50, Forward: 35, Reverse: 20},
		{Contig: "chr1", Start: 1, Stop: 2, Forward: 30, Reverse: 10},
	}
	flagged := Classify(30, records)
	if len(flagged) != 3 {
		t.Fatal("expected 3 LQRs, got", len(flagged))
	}
	if flagged[0].Start != 10 || flagged[1].Contig != "chr2" || flagged[2].Start != 1 {
		t.Error("LQRs are out of input order", flagged)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestReadAndWrite(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "s_sub_100_sequtils.bed",
		"chr1\t10\t100\tAMP1\t25.0\t40.5\textra\n"+
			"chr1\t200\t300\tAMP2\t35\t35\n"+
			"chr2\t5\t50\tAMP3\t35.50\t20\n")
	records, err := ReadCoverage(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatal("expected 3 records, got", len(records))
	}

	out := new(strings.Builder)
	if err = Write(out, Classify(30, records)); err != nil {
		t.Fatal(err)
	}
	expected := "chr1\t10\t101\t25.0\t40.5\nchr2\t5\t51\t35.50\t20\n"
	if out.String() != expected {
		t.Errorf("unexpected LQR output\n%q\nexpected\n%q", out.String(), expected)
	}
}

func TestStopIsClosed(t *testing.T) {
	r := Record{Contig: "chr3", Start: 0, Stop: 100, Forward: 1, Reverse: 1}
	if r.String() != "chr3\t0\t101\t1\t1" {
		t.Error("stop was not converted to a closed coordinate", r.String())
	}
}

func TestReadCoverageMalformed(t *testing.T) {
	dir := t.TempDir()
	bad := []string{
		"chr1\t10\t100\tAMP1\t25\n",
		"chr1\t10\t100\tAMP1\tlow\t40\n",
		"chr1\t10\t100\tAMP1\t25\t40\nchr1\tten\t100\tAMP1\t25\t40\n",
		"chr1\t10\t1e2\tAMP1\t25\t40\n",
	}
	var formatErr *InputFormatError
	for i := range bad {
		in := writeFile(t, dir, "bad_"+string(rune('a'+i))+"_1_sequtils.bed", bad[i])
		records, err := ReadCoverage(in)
		if !errors.As(err, &formatErr) {
			t.Error("expected InputFormatError for", bad[i], err)
		}
		if records != nil {
			t.Error("partial records returned for malformed file", records)
		}
	}
}

func TestReadCoverageLineNumbers(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "S1_sub_100_sequtils.bed", "#contig\tstart\tstop\n"+
		"# second header\n"+
		"chr1\t10\t100\tAMP1\t25\t40\n"+
		"chr1\t10\t100\tAMP2\t25\n")
	_, err := ReadCoverage(in)
	var formatErr *InputFormatError
	if !errors.As(err, &formatErr) || formatErr.Line != 4 {
		t.Error("expected an error on line 4 counting comment lines", err)
	}

	_, err = ReadCoverage(filepath.Join(dir, "S1_sub_200_sequtils.bed"))
	if !errors.As(err, &formatErr) {
		t.Error("expected InputFormatError for a missing file", err)
	}
}

func TestSortBySweepValue(t *testing.T) {
	files := []string{
		"/data/S23_sub_1000_sequtils.bed",
		"/data/S23_sub_100_sequtils.bed",
		"/data/S23_sub_280_sequtils.bed",
	}
	sorted, err := SortBySweepValue(files)
	if err != nil {
		t.Fatal(err)
	}
	if sorted[0] != files[1] || sorted[1] != files[2] || sorted[2] != files[0] {
		t.Error("files not sorted by reads per amplicon", sorted)
	}
	if files[0] != "/data/S23_sub_1000_sequtils.bed" {
		t.Error("input slice was modified")
	}

	if _, err = SortBySweepValue([]string{"nodigits.bed"}); err == nil {
		t.Error("expected error for file name without a sweep value")
	}
}

func TestOutputName(t *testing.T) {
	if OutputName("/x/S_sub_100_sequtils.bed") != "S_sub_100_LQR.bed" {
		t.Error("problem replacing sequtils", OutputName("/x/S_sub_100_sequtils.bed"))
	}
	if OutputName("S_sub_100.bed") != "S_sub_100_LQR.bed" {
		t.Error("problem adding LQR suffix", OutputName("S_sub_100.bed"))
	}
}

func TestClassifyFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	files := []string{
		writeFile(t, in, "S_sub_400_sequtils.bed", "chr1\t0\t100\tA\t50\t50\nchr1\t100\t200\tB\t50\t50\n"),
		writeFile(t, in, "S_sub_100_sequtils.bed", "chr1\t0\t100\tA\t10\t50\nchr1\t100\t200\tB\t50\t50\n"),
		writeFile(t, in, "S_sub_250_sequtils.bed", "chr1\t0\t100\tA\t50\n"),
	}
	results, err := ClassifyFiles(30, files, out, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatal("expected a result per file", results)
	}
	if results[0].SweepValue != 100 || results[0].Proportion() != 50 {
		t.Error("unexpected first result", results[0])
	}
	if results[1].Err == nil {
		t.Error("malformed file should have an error")
	}
	if results[2].SweepValue != 400 || results[2].Proportion() != 0 {
		t.Error("unexpected last result", results[2])
	}

	b, err := os.ReadFile(filepath.Join(out, "S_sub_100_LQR.bed"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "chr1\t0\t101\t10\t50\n" {
		t.Errorf("unexpected LQR file content %q", string(b))
	}
	if _, err = os.Stat(filepath.Join(out, "S_sub_250_LQR.bed")); err == nil {
		t.Error("no output should be written for a malformed file")
	}

	s := new(strings.Builder)
	if err = WriteProportions(s, results); err != nil {
		t.Fatal(err)
	}
	if s.String() != "Reads per amplicon\tProportion of LQRs\n100\t50.00\n400\t0.00\n" {
		t.Errorf("unexpected proportions table %q", s.String())
	}
	if AsciiPlot(results) == "" {
		t.Error("expected a terminal plot")
	}
}
