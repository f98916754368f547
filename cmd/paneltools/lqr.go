package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dasnellings/panelTools/lqr"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

func lqrUsage(lqrFlags *flag.FlagSet) {
	fmt.Print(
		"lqr - find low quality regions (LQRs) in per-region dual-strand coverage files\n" +
			"\tA region is an LQR when the forward or reverse strand coverage is below -qv.\n" +
			"\tInput file names must end with the reads per amplicon value of the sweep point.\n\n" +
			"Usage:\n" +
			"  paneltools lqr [options] -i sample_sub_100_sequtils.bed -i sample_sub_200_sequtils.bed > proportions.txt\n\n" +
			"Options:\n")
	lqrFlags.PrintDefaults()
}

func runLqr(args []string) {
	var err error
	lqrFlags := flag.NewFlagSet("lqr", flag.ExitOnError)

	var inputs inputFiles
	lqrFlags.Var(&inputs, "i", "Input coverage file. May be declared more than once. Remaining arguments are also read as inputs.")
	qv := lqrFlags.Float64("qv", 0, "Minimum coverage of each strand for a region to pass. Required.")
	outDir := lqrFlags.String("d", ".", "Output directory for LQR files.")
	output := lqrFlags.String("o", "stdout", "Output table of LQR percent for each reads per amplicon value.")
	plotFile := lqrFlags.String("plot", "", "Save a line plot of LQR percent to this png file.")
	verbose := lqrFlags.Int("v", 0, "Verbose output by setting to >0. Set to >1 to draw the LQR percent in the log.")

	err = lqrFlags.Parse(args)
	exception.PanicOnErr(err)
	lqrFlags.Usage = func() { lqrUsage(lqrFlags) }
	inputs = append(inputs, lqrFlags.Args()...)

	if len(inputs) == 0 {
		lqrFlags.Usage()
		errExit("\nERROR: must specify at least one input coverage file")
	}
	if *qv <= 0 {
		lqrFlags.Usage()
		errExit("\nERROR: -qv must be > 0")
	}

	err = os.MkdirAll(*outDir, 0755)
	exception.PanicOnErr(err)
	results, err := lqr.ClassifyFiles(*qv, inputs, *outDir, *verbose)
	if err != nil {
		errExit("ERROR: " + err.Error())
	}

	out := fileio.EasyCreate(*output)
	err = lqr.WriteProportions(out, results)
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)

	if *verbose > 1 {
		log.Printf("\n%s\n", lqr.AsciiPlot(results))
	}
	if *plotFile != "" {
		err = lqr.PlotProportions(results, *plotFile)
		exception.PanicOnErr(err)
	}
}
