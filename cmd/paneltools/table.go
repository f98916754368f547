package main

import (
	"flag"
	"fmt"

	"github.com/dasnellings/panelTools/amplicon"
	"github.com/dasnellings/panelTools/coverage"
	"github.com/dasnellings/panelTools/sweep"
	"github.com/vertgenlab/gonomics/exception"
)

func tableUsage(tableFlags *flag.FlagSet) {
	fmt.Print(
		"table - build a coverage table of the percent of amplicons reaching each reads per amplicon value\n" +
			"\tRows are reads per amplicon values and columns are reads per sample values. Without -t the\n" +
			"\ttable assumes reads are spread evenly across amplicons. With -t each column is one sequenced\n" +
			"\tsample and cells count the amplicons that reached the row value.\n\n" +
			"Usage:\n" +
			"  paneltools table [options] -first 100 -last 1000 -points 10 -amplicons 96 > coverage_table.txt\n" +
			"  paneltools table [options] -first 100 -last 1000 -points 10 -amplicons 96 -t run1.tsv -t run2.tsv > coverage_table.txt\n\n" +
			"Options:\n")
	tableFlags.PrintDefaults()
}

func runTable(args []string) {
	var err error
	tableFlags := flag.NewFlagSet("table", flag.ExitOnError)

	var tables inputFiles
	first := tableFlags.Int("first", 100, "First reads per amplicon value.")
	last := tableFlags.Int("last", 1000, "Last reads per amplicon value.")
	points := tableFlags.Int("points", 10, "Number of reads per amplicon values.")
	amplicons := tableFlags.Int("amplicons", 0, "Number of amplicons in the panel.")
	correction := tableFlags.Float64("correction", 0, "Percent added to each reads per sample column. Ignored with -t.")
	tableFlags.Var(&tables, "t", "Per-amplicon read count table (tsv with a total_reads column). May be declared more than once; each becomes a column.")
	output := tableFlags.String("o", "stdout", "Output coverage table.")
	heatmap := tableFlags.String("heatmap", "", "Save the table as a heatmap to this png file.")

	err = tableFlags.Parse(args)
	exception.PanicOnErr(err)
	tableFlags.Usage = func() { tableUsage(tableFlags) }

	if *amplicons < 1 {
		tableFlags.Usage()
		errExit("\nERROR: -amplicons must be >= 1")
	}
	r := sweep.Range{First: *first, Last: *last, Points: *points, AmpliconCount: *amplicons, MappedReads: 1, Correction: *correction}
	if err = r.Validate(); err != nil {
		tableFlags.Usage()
		errExit("\nERROR: " + err.Error())
	}
	rows := sweep.Values(*first, *last, *points)

	var agg coverage.Aggregator
	if len(tables) == 0 {
		agg = coverage.Analytic{Rows: rows, AmpliconCount: *amplicons, Correction: *correction}
	} else {
		e := coverage.Empirical{Rows: rows, AmpliconCount: *amplicons}
		var t amplicon.Table
		for i := range tables {
			if t, err = amplicon.Read(tables[i]); err != nil {
				errExit("ERROR: " + err.Error())
			}
			e.Samples = append(e.Samples, coverage.ColumnFromTable(t))
		}
		agg = e
	}

	m, err := agg.Aggregate()
	if err != nil {
		errExit("ERROR: " + err.Error())
	}
	m.WriteFile(*output)
	if *heatmap != "" {
		err = coverage.Heatmap(m, *heatmap)
		exception.PanicOnErr(err)
	}
}
