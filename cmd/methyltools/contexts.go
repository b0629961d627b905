package main

import (
	"flag"
	"fmt"
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/reference"
	"github.com/dasnellings/methylTools/strand"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"io"
	"log"
	"strings"
)

func contextsUsage(contextsFlags *flag.FlagSet) {
	fmt.Print(
		"contexts - count the cytosines of each strand of a reference by CG, CHG, and CHH context\n\n" +
			"Usage:\n" +
			"  methyltools contexts [options] -r reference.fasta > contexts.tsv\n\n" +
			"Options:\n")
	contextsFlags.PrintDefaults()
}

func runContexts(args []string) {
	var err error
	contextsFlags := flag.NewFlagSet("contexts", flag.ExitOnError)

	ref := contextsFlags.String("r", "", "Reference fasta file.")
	output := contextsFlags.String("o", "stdout", "Output tsv file.")
	boundary := contextsFlags.String("boundary", seqctx.BoundaryCHH.String(), "Handling of cytosines within 2bp of a contig end: chh or skip.")
	motif := contextsFlags.Bool("motif", false, "Report counts of each 3bp motif (e.g. CAG) instead of contexts.")
	exclude := contextsFlags.String("exclude", "", "Name of a contig (e.g. a lambda control) left out of the counts.")
	verbose := contextsFlags.Int("verbose", 0, "Level of verbosity in log.")

	err = contextsFlags.Parse(args)
	exception.PanicOnErr(err)
	contextsFlags.Usage = func() { contextsUsage(contextsFlags) }

	if *ref == "" {
		contextsFlags.Usage()
		errExit("\nERROR: must input a reference with -r")
	}
	policy, err := seqctx.ParseBoundaryPolicy(*boundary)
	if err != nil {
		contextsFlags.Usage()
		errExit("\nERROR: " + err.Error())
	}

	contexts(*ref, *output, policy, *motif, *exclude, *verbose)
}

func contexts(ref, output string, policy seqctx.BoundaryPolicy, motif bool, exclude string, verbose int) {
	acc, err := reference.Open(ref)
	exception.PanicOnErr(err)
	defer acc.Close()

	var counts seqctx.Counts
	motifs := make(map[string]int)
	for _, name := range acc.Index().Names() {
		if name == exclude {
			continue
		}
		if verbose > 0 {
			log.Printf("Counting %s", name)
		}
		seq, err := reference.Contig(acc, name)
		exception.PanicOnErr(err)
		if motif {
			for key, val := range seqctx.MotifCounts(seq) {
				motifs[key] += val
			}
			continue
		}
		counts.Add(seqctx.CountGenome(seq, policy))
	}

	out := fileio.EasyCreate(output)
	if motif {
		_, err = io.WriteString(out, seqctx.MotifOutput(motifs))
	} else {
		_, err = io.WriteString(out, countsOutput(counts))
	}
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
}

func countsOutput(c seqctx.Counts) string {
	s := new(strings.Builder)
	s.WriteString("#Strand\tContext\tCount\n")
	for _, st := range strand.Both {
		for _, ctx := range seqctx.All {
			fmt.Fprintf(s, "%s\t%s\t%d\n", st, ctx, c[st][ctx])
		}
	}
	for _, ctx := range seqctx.All {
		fmt.Fprintf(s, "BOTH\t%s\t%d\n", ctx, c.Total(ctx))
	}
	return s.String()
}
