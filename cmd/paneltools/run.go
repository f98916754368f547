package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dasnellings/panelTools/pipeline"
	"github.com/dasnellings/panelTools/sweep"
	"github.com/pkg/profile"
	"github.com/vertgenlab/gonomics/exception"
)

func runUsage(runFlags *flag.FlagSet) {
	fmt.Print(
		"run - run the reads per amplicon sweep for every sample in a manifest\n" +
			"\tEach sample is subsampled with samtools at every sweep point, region coverage is computed\n" +
			"\twith sequtils, LQRs are counted, and a coverage table is written. The manifest is a tsv of\n" +
			"\tname, bam, and optionally mapped reads and comma separated per-amplicon read count tables.\n\n" +
			"Usage:\n" +
			"  paneltools run [options] -m manifest.tsv -t targets.bed -qv 100 -d outDir\n\n" +
			"Options:\n")
	runFlags.PrintDefaults()
}

func runRun(args []string) {
	var err error
	runFlags := flag.NewFlagSet("run", flag.ExitOnError)

	manifest := runFlags.String("m", "", "Sample manifest.")
	targets := runFlags.String("t", "", "Bed file of panel target regions.")
	first := runFlags.Int("first", 100, "First reads per amplicon value of the sweep.")
	last := runFlags.Int("last", 1000, "Last reads per amplicon value of the sweep.")
	points := runFlags.Int("points", 10, "Number of sweep points.")
	amplicons := runFlags.Int("amplicons", 0, "Number of amplicons in the panel. Counted from -t when 0.")
	correction := runFlags.Float64("correction", 0, "Percent added to each reads per sample value.")
	qv := runFlags.Float64("qv", 0, "Minimum coverage of each strand for a region to pass. Required.")
	outDir := runFlags.String("d", ".", "Output directory.")
	samtools := runFlags.String("samtools", "samtools", "samtools executable.")
	seed := runFlags.Int("seed", 0, "Seed for samtools subsampling.")
	java := runFlags.String("java", "java", "java executable.")
	jar := runFlags.String("sequtils", "sequtils.jar", "Path to sequtils.jar.")
	timeout := runFlags.Duration("timeout", pipeline.DefaultReadiness().Timeout, "Maximum time to wait for an output file after its process exits.")
	plot := runFlags.Bool("plot", false, "Save LQR proportion plots and coverage heatmaps.")
	cpuprofile := runFlags.Bool("cpuprofile", false, "write cpu profile")
	memprofile := runFlags.Bool("memprofile", false, "write memory profile")
	verbose := runFlags.Int("v", 0, "Verbose output by setting to >0.")

	err = runFlags.Parse(args)
	exception.PanicOnErr(err)
	runFlags.Usage = func() { runUsage(runFlags) }

	if *memprofile && *cpuprofile {
		errExit("ERROR: -memprofile and -cpuprofile are mutually exclusive.")
	}
	if *memprofile {
		defer profile.Start(profile.MemProfile).Stop()
	}
	if *cpuprofile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if *manifest == "" || *targets == "" {
		runFlags.Usage()
		errExit("\nERROR: must specify a manifest (-m) and targets bed file (-t)")
	}
	if *qv <= 0 {
		runFlags.Usage()
		errExit("\nERROR: -qv must be > 0")
	}

	m, err := pipeline.ReadManifest(*manifest)
	if err != nil {
		errExit("ERROR: " + err.Error())
	}

	readiness := pipeline.DefaultReadiness()
	readiness.Timeout = *timeout
	cfg := pipeline.Config{
		First:         *first,
		Last:          *last,
		Points:        *points,
		AmpliconCount: *amplicons,
		Targets:       *targets,
		Correction:    *correction,
		Quality:       *qv,
		OutDir:        *outDir,
		Subsampler:    pipeline.Samtools{Path: *samtools, Seed: *seed},
		CoverageTool:  pipeline.Sequtils{Java: *java, Jar: *jar},
		Readiness:     readiness,
		Plot:          *plot,
		Verbose:       *verbose,
	}

	start := time.Now()
	reports, err := pipeline.Run(context.Background(), cfg, m)
	var cfgErr *sweep.ConfigurationError
	if errors.As(err, &cfgErr) {
		runFlags.Usage()
		errExit("\nERROR: " + err.Error())
	}
	if err != nil {
		errExit("ERROR: " + err.Error())
	}

	var failed int
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
			continue
		}
		log.Printf("%s: %d of %d sweep points completed, coverage table written to %s\n", rep.Sample, len(rep.Completed()), len(rep.Points), rep.Table)
	}
	if *verbose > 0 {
		log.Printf("finished in %s\n", time.Since(start).Round(time.Millisecond))
	}
	if failed > 0 {
		errExit(fmt.Sprintf("ERROR: %d of %d samples failed", failed, len(reports)))
	}
}
