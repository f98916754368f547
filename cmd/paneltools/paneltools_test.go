package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommandMap(t *testing.T) {
	m := commandMap()
	for _, name := range []string{"params", "lqr", "table", "amplicons", "run"} {
		if m[name] == nil {
			t.Error("missing subcommand", name)
		}
	}
	if len(m) != len(SubCommands) {
		t.Error("duplicate subcommand names")
	}
}

func TestInputFiles(t *testing.T) {
	var in inputFiles
	_ = in.Set("a.bed")
	_ = in.Set("b.bed")
	if len(in) != 2 || in.String() != "a.bed b.bed" {
		t.Error("problem with inputFiles", in)
	}
}

func TestRunTable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "coverage_table.txt")
	runTable([]string{"-first", "100", "-last", "300", "-points", "3", "-amplicons", "10", "-o", out})
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	exp := "\t1000\t2000\t3000\n" +
		"100\t100.00\t100.00\t100.00\n" +
		"200\t50.00\t100.00\t100.00\n" +
		"300\t33.33\t66.67\t100.00\n"
	if string(b) != exp {
		t.Errorf("problem with analytic table\nexpected:\n%s\nfound:\n%s", exp, string(b))
	}
}

func TestRunParams(t *testing.T) {
	out := filepath.Join(t.TempDir(), "params.json")
	runParams([]string{"-first", "100", "-last", "300", "-points", "3", "-amplicons", "10", "-mapped", "100000", "-o", out})
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"100": 0.01, "200": 0.02, "300": 0.03}` {
		t.Error("problem with params output", string(b))
	}
}
