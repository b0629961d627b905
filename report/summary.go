package report

import (
	"fmt"
	"github.com/dasnellings/methylTools/call"
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/errmodel"
	"github.com/dasnellings/methylTools/failure"
	"github.com/dasnellings/methylTools/reads"
	"github.com/dasnellings/methylTools/strand"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/stat"
	"io"
	"strings"
)

// histogramBins is the number of methylation level bins in the summary plot.
const histogramBins = 10

// ReadStats counts what happened to the reads of one strand of a task.
type ReadStats struct {
	reads.Stats
	Ambiguous     int
	ClonalRemoved int
	BadMappings   int
	OffReference  int
}

// ContextStats summarizes the reported cytosines of one strand and context.
type ContextStats struct {
	Covered  int // depth passing positions
	Called   int
	LevelSum float64
}

// MeanLevel is the average methylation level over covered positions.
func (c ContextStats) MeanLevel() float64 {
	if c.Covered == 0 {
		return 0
	}
	return c.LevelSum / float64(c.Covered)
}

// Summary describes the outcome of one (sample, reference) task. It is built
// by the task that owns it and not modified after the task returns.
type Summary struct {
	Sample    string
	Reference string
	Err       error

	Model     errmodel.Model
	Reads     [2]ReadStats
	Contexts  [2][3]ContextStats
	Genome    seqctx.Counts
	Covered   int // positions with any informative depth
	Positions int // depth passing positions
	Calls     int
	MeanDepth float64
	Histogram []float64 // called positions per methylation level bin
}

// Succeeded reports whether the task completed.
func (s Summary) Succeeded() bool {
	return s.Err == nil
}

// Status returns SUCCEEDED or FAILED.
func (s Summary) Status() string {
	if s.Succeeded() {
		return "SUCCEEDED"
	}
	return "FAILED"
}

// Tally fills the coverage, position, context, depth, and histogram fields from the
// finalized calls of the task.
func (s *Summary) Tally(groups ...[]call.MethylationCall) {
	var depths []float64
	s.Histogram = make([]float64, histogramBins)
	var bin int
	for _, calls := range groups {
		for i := range calls {
			c := &calls[i]
			if c.Depth > 0 {
				s.Covered++
			}
			if !c.PassesDepth {
				continue
			}
			s.Positions++
			depths = append(depths, float64(c.Depth))
			cs := &s.Contexts[c.Strand][c.Context.Context]
			cs.Covered++
			cs.LevelSum += c.Level
			if !c.Called {
				continue
			}
			s.Calls++
			cs.Called++
			bin = int(c.Level * histogramBins)
			if bin >= histogramBins {
				bin = histogramBins - 1
			}
			s.Histogram[bin]++
		}
	}
	if len(depths) > 0 {
		s.MeanDepth = stat.Mean(depths, nil)
	}
}

// Write prints the summary as key/value lines followed by per context tables.
func (s Summary) Write(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "sample\t%s\n", s.Sample)
	fmt.Fprintf(&sb, "reference\t%s\n", s.Reference)
	fmt.Fprintf(&sb, "status\t%s\n", s.Status())
	if !s.Succeeded() {
		fmt.Fprintf(&sb, "failure\t%s\n", failure.KindOf(s.Err))
		fmt.Fprintf(&sb, "reason\t%s\n", s.Err)
	}

	fmt.Fprintf(&sb, "error.model\t%s\n", s.Model.Mode)
	for _, st := range strand.Both {
		r := s.Model.Rates[st]
		fmt.Fprintf(&sb, "error.rate.%s\t%s\n", st, formatP(r.Rate))
		if r.Estimated {
			fmt.Fprintf(&sb, "error.evidence.%s\t%d/%d\n", st, r.Methylated, r.Depth)
		}
	}

	for _, st := range strand.Both {
		r := s.Reads[st]
		fmt.Fprintf(&sb, "reads.%s.records\t%d\n", st, r.Records)
		fmt.Fprintf(&sb, "reads.%s.kept\t%d\n", st, r.Kept)
		fmt.Fprintf(&sb, "reads.%s.malformed\t%d\n", st, r.Malformed)
		fmt.Fprintf(&sb, "reads.%s.unmapped\t%d\n", st, r.Unmapped)
		fmt.Fprintf(&sb, "reads.%s.secondary\t%d\n", st, r.Secondary)
		fmt.Fprintf(&sb, "reads.%s.low_mapq\t%d\n", st, r.LowMapQ)
		fmt.Fprintf(&sb, "reads.%s.ambiguous\t%d\n", st, r.Ambiguous)
		fmt.Fprintf(&sb, "reads.%s.clonal\t%d\n", st, r.ClonalRemoved)
		fmt.Fprintf(&sb, "reads.%s.bad_mappings\t%d\n", st, r.BadMappings)
		fmt.Fprintf(&sb, "reads.%s.off_reference\t%d\n", st, r.OffReference)
	}

	fmt.Fprintf(&sb, "positions.covered\t%d\n", s.Covered)
	fmt.Fprintf(&sb, "positions.passing_depth\t%d\n", s.Positions)
	fmt.Fprintf(&sb, "methylcytosines\t%d\n", s.Calls)
	fmt.Fprintf(&sb, "mean.depth\t%.2f\n", s.MeanDepth)

	sb.WriteString("\n#STRAND\tCONTEXT\tGENOME\tCOVERED\tMETHYLATED\tMEAN_LEVEL\n")
	for _, st := range strand.Both {
		for _, ctx := range seqctx.All {
			cs := s.Contexts[st][ctx]
			fmt.Fprintf(&sb, "%s\t%s\t%d\t%d\t%d\t%.4f\n", st, ctx, s.Genome[st][ctx], cs.Covered, cs.Called, cs.MeanLevel())
		}
	}

	if s.Calls > 0 {
		sb.WriteString("\n# methylcytosines per methylation level decile\n")
		sb.WriteString(asciigraph.Plot(s.Histogram, asciigraph.Height(8), asciigraph.Precision(0)))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
