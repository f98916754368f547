package amplicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSampleName(t *testing.T) {
	cases := map[string]string{
		"/data/run1/S1.tsv":        "S1",
		"S2.tsv.gz":                "S2",
		"S3_coverage_analysis.txt": "S3_coverage_analysis",
		"results/S4.coverage.tsv":  "S4.coverage",
		"no_extension":             "no_extension",
	}
	for in, exp := range cases {
		if SampleName(in) != exp {
			t.Errorf("problem with SampleName(%s): expected %s, found %s", in, exp, SampleName(in))
		}
	}
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "S1.tsv")
	data := "amplicon_id\tchrom\ttotal_reads\tgc\n" +
		"AMP1\tchr1\t120\t0.41\n" +
		"AMP2\tchr2\t80\t0.55\n" +
		"AMP3\tchr2\t0\t0.62\n"
	if err := os.WriteFile(in, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Read(in)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Sample != "S1" || len(tbl.Rows) != 3 || tbl.Sum() != 200 {
		t.Error("problem reading table", tbl)
	}
	totals := tbl.Totals()
	if totals[0] != 120 || totals[1] != 80 || totals[2] != 0 {
		t.Error("problem with totals", totals)
	}
	if tbl.Rows[1].ID != "AMP2" {
		t.Error("problem with amplicon id", tbl.Rows[1].ID)
	}

	out := filepath.Join(dir, "out.txt")
	WriteFile(out, tbl.Header, []Row{tbl.Rows[2], tbl.Rows[0]})
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	exp := "amplicon_id\tchrom\ttotal_reads\tgc\nAMP3\tchr2\t0\t0.62\nAMP1\tchr1\t120\t0.41\n"
	if string(b) != exp {
		t.Errorf("problem writing rows\nexpected:\n%s\nfound:\n%s", exp, string(b))
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing.tsv":  "amplicon_id\treads\nA\t10\n",
		"ragged.tsv":   "amplicon_id\ttotal_reads\nA\t10\textra\n",
		"negative.tsv": "amplicon_id\ttotal_reads\nA\t-4\n",
		"empty.tsv":    "",
	}
	for name, data := range cases {
		file := filepath.Join(dir, name)
		if err := os.WriteFile(file, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Read(file)
		if err == nil || !strings.Contains(err.Error(), file) {
			t.Error("expected an error naming the file for", name, err)
		}
	}

	missing := filepath.Join(dir, "missing_S9.tsv")
	tbl, err := Read(missing)
	if err == nil || !strings.Contains(err.Error(), missing) || tbl.Sample != "missing_S9" {
		t.Error("expected an error for a missing table", tbl.Sample, err)
	}
}
