package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/dasnellings/methylTools/pipeline"
	"github.com/vertgenlab/gonomics/exception"
	"log"
	"os"
	"os/signal"
)

func callUsage(callFlags *flag.FlagSet) {
	fmt.Print(
		"call - call methylated cytosines from alignments against the WATSON and CRICK converted references\n\n" +
			"Usage:\n" +
			"  methyltools call [options] -s sample -r reference.fasta -w watson.bam -c crick.bam -fixedWatson 0.01 -fixedCrick 0.01\n" +
			"  methyltools call -config run.yml\n\n" +
			"A run file may list many (sample, reference) tasks and accepts every option below under its long name.\n" +
			"When -config is given all other options are ignored.\n\n" +
			"Options:\n")
	callFlags.PrintDefaults()
}

func runCall(args []string) {
	var err error
	callFlags := flag.NewFlagSet("call", flag.ExitOnError)
	def := pipeline.DefaultConfig()

	var controlBeds, excludeBeds, regionBeds inputFiles
	configFile := callFlags.String("config", "", "YAML run file. Overrides every other option.")
	sample := callFlags.String("s", "", "Sample name used to prefix output files.")
	ref := callFlags.String("r", "", "Unconverted reference fasta. Indexed access is used when reference.fasta.fai exists.")
	refName := callFlags.String("refName", "", "Reference name used in output file names. Default is the fasta file name.")
	watson := callFlags.String("w", "", "Alignments (sam or bam) against the WATSON (C->T) converted reference.")
	crick := callFlags.String("c", "", "Alignments (sam or bam) against the CRICK (G->A) converted reference.")
	outDir := callFlags.String("o", def.OutputDir, "Output directory.")
	threads := callFlags.Int("threads", def.Threads, "Number of tasks run in parallel.")
	trim := callFlags.Bool("trim", false, "Trim bases from both ends of every read before calling.")
	trimLength := callFlags.Int("trimLength", def.TrimLength, "Number of bases removed from each read end when -trim is set.")
	removeAmbiguous := callFlags.Bool("removeAmbiguous", false, "Remove reads aligned to both the WATSON and CRICK references.")
	removeBadMappings := callFlags.Bool("removeBadMappings", false, "Remove reads with more than -maxMismatches mismatches at non cytosine positions.")
	maxMismatches := callFlags.Int("maxMismatches", def.MaxMismatches, "Maximum mismatches for -removeBadMappings.")
	removeClonal := callFlags.Bool("removeClonal", false, "Remove clonal duplicates (same 5' position, strand, and mate position).")
	clonalPolicy := callFlags.String("clonalPolicy", def.ClonalPolicy, "Read kept among clonal duplicates: first or mapq.")
	reportAll := callFlags.Bool("reportAll", false, "Report covered positions below -minDepth in the methylation tables.")
	minDepth := callFlags.Int("minDepth", def.MinDepth, "Minimum informative reads for a position to be tested.")
	minMapQ := callFlags.Int("minMapQ", def.MinMapQ, "Minimum mapping quality.")
	significance := callFlags.Float64("significance", def.Significance, "Significance threshold for calling a cytosine methylated.")
	correction := callFlags.String("correction", def.Correction, "Multiple testing correction: none or fdr.")
	callFlags.Var(&controlBeds, "control", "Bed file(s) with unmethylated control regions. May be declared more than once.")
	controlGenome := callFlags.String("controlGenome", "", "Name of a spiked-in unmethylated control contig (e.g. lambda).")
	minControlDepth := callFlags.Int("minControlDepth", def.MinControlDepth, "Minimum informative control reads per strand for error rate estimation.")
	fixedWatson := callFlags.Float64("fixedWatson", -1, "Fixed WATSON error rate. Use with -fixedCrick instead of a control.")
	fixedCrick := callFlags.Float64("fixedCrick", -1, "Fixed CRICK error rate. Use with -fixedWatson instead of a control.")
	boundary := callFlags.String("boundary", def.BoundaryPolicy, "Handling of cytosines within 2bp of a contig end: chh or skip.")
	callFlags.Var(&excludeBeds, "e", "Bed file(s) with regions excluded from output. May be declared more than once.")
	callFlags.Var(&regionBeds, "regions", "Bed file(s) of regions to summarize methylation over. May be declared more than once.")
	plot := callFlags.Bool("plot", false, "Write an svg histogram of methylation levels per task.")
	verbose := callFlags.Int("verbose", 0, "Level of verbosity in log.")

	err = callFlags.Parse(args)
	exception.PanicOnErr(err)
	callFlags.Usage = func() { callUsage(callFlags) }

	var cfg pipeline.Config
	if *configFile != "" {
		cfg, err = pipeline.LoadConfig(*configFile)
		if err != nil {
			errExit(err.Error())
		}
	} else {
		if *sample == "" || *ref == "" || *watson == "" || *crick == "" {
			callFlags.Usage()
			errExit("\nERROR: must specify sample (-s), fasta (-r), and both alignments (-w, -c), or a run file (-config)")
		}
		cfg = def
		cfg.Tasks = []pipeline.Task{{Sample: *sample, Reference: *refName, ReferenceFasta: *ref, Watson: *watson, Crick: *crick}}
		cfg.OutputDir = *outDir
		cfg.Threads = *threads
		cfg.Trim = *trim
		cfg.TrimLength = *trimLength
		cfg.RemoveAmbiguous = *removeAmbiguous
		cfg.RemoveBadMappings = *removeBadMappings
		cfg.MaxMismatches = *maxMismatches
		cfg.RemoveClonal = *removeClonal
		cfg.ClonalPolicy = *clonalPolicy
		cfg.ReportAllPositions = *reportAll
		cfg.MinDepth = *minDepth
		cfg.MinMapQ = *minMapQ
		cfg.Significance = *significance
		cfg.Correction = *correction
		cfg.ControlRegions = controlBeds
		cfg.ControlGenomeLabel = *controlGenome
		cfg.MinControlDepth = *minControlDepth
		if *fixedWatson >= 0 || *fixedCrick >= 0 {
			cfg.FixedErrorRates = &pipeline.FixedRates{Watson: *fixedWatson, Crick: *fixedCrick}
		}
		cfg.BoundaryPolicy = *boundary
		cfg.ExcludeRegions = excludeBeds
		cfg.Regions = regionBeds
		cfg.Plot = *plot
		cfg.Verbose = *verbose
	}

	if err = cfg.Validate(); err != nil {
		callFlags.Usage()
		errExit("\nERROR: " + err.Error())
	}
	if len(cfg.ExcludeRegions) == 0 && cfg.Verbose > 0 {
		log.Println("WARNING: -e was not declared. It is recommended to mask regions with poor mapability.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	run, err := pipeline.Run(ctx, cfg)
	if err != nil {
		errExit(err.Error())
	}
	if run.Failed > 0 {
		log.Printf("WARNING: %d of %d tasks failed. See %s/run.summary.txt", run.Failed, len(run.Tasks), cfg.OutputDir)
	}
}
