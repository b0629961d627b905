// Package pipeline runs the methylation calling engine: one task per
// (sample, reference) pair, executed on a bounded worker pool. A failing task
// writes only its summary and never stops its siblings.
package pipeline

import (
	"context"
	"fmt"
	"github.com/dasnellings/methylTools/call"
	"github.com/dasnellings/methylTools/clonal"
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/errmodel"
	"github.com/dasnellings/methylTools/fai"
	"github.com/dasnellings/methylTools/failure"
	"github.com/dasnellings/methylTools/pileup"
	"github.com/dasnellings/methylTools/reads"
	"github.com/dasnellings/methylTools/reference"
	"github.com/dasnellings/methylTools/regions"
	"github.com/dasnellings/methylTools/report"
	"github.com/dasnellings/methylTools/strand"
	"github.com/vertgenlab/gonomics/dna"
	"golang.org/x/sync/errgroup"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// engine holds what every task of a run shares. Nothing in it is modified
// after newEngine returns except the genome count cache.
type engine struct {
	cfg     Config
	set     settings
	source  errmodel.Source
	control errmodel.Control
	exclude regions.Set
	regions regions.Set
	genomes *genomeCache
}

func newEngine(cfg Config) (*engine, error) {
	set, err := cfg.parse()
	if err != nil {
		return nil, err
	}
	e := &engine{cfg: cfg, set: set, genomes: newGenomeCache()}

	if set.fixed != nil {
		e.source = *set.fixed
	} else {
		e.control = errmodel.Control{Label: cfg.ControlGenomeLabel, MinDepth: cfg.MinControlDepth}
		if e.control.Regions, err = regions.Load(cfg.ControlRegions...); err != nil {
			return nil, failure.New(failure.InputAccess, "loading control regions", err)
		}
		e.source = e.control
	}
	if e.exclude, err = regions.Load(cfg.ExcludeRegions...); err != nil {
		return nil, failure.New(failure.InputAccess, "loading exclude regions", err)
	}
	if e.regions, err = regions.Load(cfg.Regions...); err != nil {
		return nil, failure.New(failure.InputAccess, "loading regions", err)
	}
	return e, nil
}

// Run validates cfg, executes every task with at most cfg.Threads running at
// once, and writes run.summary.txt to cfg.OutputDir. The returned error is
// non-nil when the configuration is invalid, the run summary cannot be
// written, ctx was cancelled, or every task failed.
func Run(ctx context.Context, cfg Config) (report.Run, error) {
	e, err := newEngine(cfg)
	if err != nil {
		return report.Run{}, err
	}
	if err = os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return report.Run{}, failure.New(failure.OutputWrite, "creating output directory", err)
	}

	start := time.Now()
	summaries := make([]report.Summary, len(cfg.Tasks))
	var g errgroup.Group
	g.SetLimit(cfg.Threads)
	for i := range cfg.Tasks {
		i := i
		if ctx.Err() != nil {
			summaries[i] = report.Summary{
				Sample:    cfg.Tasks[i].Sample,
				Reference: cfg.Tasks[i].ReferenceName(),
				Err:       failure.New(failure.Unknown, "scheduling task", ctx.Err()),
			}
			continue
		}
		g.Go(func() error {
			summaries[i] = e.runTask(ctx, cfg.Tasks[i])
			return nil
		})
	}
	g.Wait()

	run := report.Reduce(summaries)
	if err = writeRun(cfg.OutputDir, run); err != nil {
		return run, err
	}
	if cfg.Verbose > 0 {
		log.Printf("Finished %d tasks (%d failed) in %s", len(run.Tasks), run.Failed, time.Since(start).Round(time.Millisecond))
	}
	switch {
	case ctx.Err() != nil:
		return run, ctx.Err()
	case run.AllFailed():
		return run, fmt.Errorf("all %d tasks failed", run.Failed)
	}
	return run, nil
}

func writeRun(dir string, run report.Run) error {
	var b report.Batch
	w, err := b.Create(filepath.Join(dir, report.RunSummaryName))
	if err != nil {
		return err
	}
	if err = run.Write(w); err != nil {
		b.Abort()
		return failure.New(failure.OutputWrite, "writing run summary", err)
	}
	return b.Commit()
}

// calls is the finalized output of a task.
type calls struct {
	idx    fai.Index
	strand [2][]call.MethylationCall
	merged []call.MethylationCall
}

// runTask never panics. Every failure is returned in Summary.Err.
func (e *engine) runTask(ctx context.Context, t Task) (s report.Summary) {
	s.Sample = t.Sample
	s.Reference = t.ReferenceName()
	paths := report.NewPaths(e.cfg.OutputDir, s.Sample, s.Reference)
	if e.cfg.Verbose > 0 {
		log.Printf("Starting %s on %s", s.Sample, s.Reference)
	}

	defer func() {
		if r := recover(); r != nil {
			s.Err = failure.FromPanic(failure.Unknown, "running "+s.Sample+" on "+s.Reference, r)
		}
		if s.Err == nil {
			return
		}
		log.Printf("WARNING: %s on %s failed: %s", s.Sample, s.Reference, s.Err)
		if err := writeFailed(paths, s); err != nil {
			log.Printf("WARNING: could not write summary of %s on %s: %s", s.Sample, s.Reference, err)
		}
	}()

	var res calls
	if res, s.Err = e.process(ctx, t, &s); s.Err != nil {
		return s
	}
	s.Err = e.write(paths, s, res)
	if s.Err == nil && e.cfg.Verbose > 0 {
		log.Printf("Finished %s on %s: %d methylcytosines", s.Sample, s.Reference, s.Calls)
	}
	return s
}

// guard converts a panic in a goroutine spawned by a task into an error.
func guard(err *error, kind failure.Kind, op string) {
	if r := recover(); r != nil {
		*err = failure.FromPanic(kind, op, r)
	}
}

// process runs every stage of a task up to, but not including, writing.
func (e *engine) process(ctx context.Context, t Task, s *report.Summary) (res calls, err error) {
	acc, err := reference.Open(t.ReferenceFasta)
	if err != nil {
		return res, failure.New(failure.InputAccess, "opening reference "+t.ReferenceFasta, err)
	}
	defer acc.Close()
	res.idx = acc.Index()

	var aligned [2][]reads.AlignedRead
	var g errgroup.Group
	for _, st := range strand.Both {
		st := st
		g.Go(func() (err error) {
			defer guard(&err, failure.InputAccess, "reading "+st.String()+" alignments")
			aligned[st], s.Reads[st].Stats, err = reads.Load(t.alignments(st), e.set.readOpt)
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return res, err
	}
	if err = ctx.Err(); err != nil {
		return res, failure.New(failure.Unknown, "reading alignments", err)
	}

	if e.cfg.RemoveAmbiguous {
		shared := reads.SharedNames(aligned[strand.Watson], aligned[strand.Crick])
		for _, st := range strand.Both {
			aligned[st], s.Reads[st].Ambiguous = reads.Exclude(aligned[st], shared)
		}
	}

	pileOpt := pileup.Options{
		RemoveBadMappings: e.cfg.RemoveBadMappings,
		MaxMismatches:     e.cfg.MaxMismatches,
		Verbose:           e.cfg.Verbose,
	}
	var cells [2][]pileup.Cell
	for _, st := range strand.Both {
		st := st
		g.Go(func() (err error) {
			defer guard(&err, failure.InputAccess, "building "+st.String()+" pileup")
			if e.cfg.RemoveClonal {
				aligned[st], s.Reads[st].ClonalRemoved = clonal.Filter(aligned[st], e.set.clonal)
			}
			p := pileup.Build(aligned[st], st, acc, pileOpt)
			stats := p.Stats()
			s.Reads[st].BadMappings = stats.BadMappings
			s.Reads[st].OffReference = stats.OffReference
			cells[st] = p.Sorted()
			aligned[st] = nil
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return res, err
	}

	if s.Model, err = errmodel.Build(e.source, cells[strand.Watson], cells[strand.Crick]); err != nil {
		return res, err
	}
	if e.cfg.Verbose > 0 {
		log.Printf("Error model for %s on %s: %s", s.Sample, s.Reference, s.Model)
	}

	seqs := make(map[string][]dna.Base)
	for _, st := range strand.Both {
		if res.strand[st], err = e.evaluate(acc, seqs, st, cells[st], s.Model.Rate(st)); err != nil {
			return res, err
		}
	}
	call.Finalize(e.set.params, res.strand[strand.Watson], res.strand[strand.Crick])

	if s.Genome, err = e.genomes.get(t.ReferenceFasta, acc, e); err != nil {
		return res, err
	}
	s.Tally(res.strand[strand.Watson], res.strand[strand.Crick])

	res.merged = merge(res.idx, res.strand[strand.Watson], res.strand[strand.Crick])
	return res, nil
}

// reported reports whether a position on contig may appear in any output.
func (e *engine) reported(contig string, pos int) bool {
	return !e.control.IsControlContig(contig) && !e.exclude.Contains(contig, pos)
}

// evaluate classifies and tests every cell of one strand. seqs caches whole
// contig sequences between strands.
func (e *engine) evaluate(acc reference.Accessor, seqs map[string][]dna.Base, st strand.Strand, cells []pileup.Cell, rate float64) ([]call.MethylationCall, error) {
	ans := make([]call.MethylationCall, 0, len(cells))
	var seq []dna.Base
	var found, keep bool
	var class seqctx.Class
	var err error
	for i := range cells {
		if !e.reported(cells[i].Contig, cells[i].Pos) {
			continue
		}
		if seq, found = seqs[cells[i].Contig]; !found {
			if seq, err = reference.Contig(acc, cells[i].Contig); err != nil {
				return nil, failure.New(failure.InputAccess, "fetching "+cells[i].Contig, err)
			}
			seqs[cells[i].Contig] = seq
		}
		if class, keep = seqctx.Classify(seq, cells[i].Pos, st, e.set.boundary); !keep {
			continue
		}
		ans = append(ans, call.Evaluate(cells[i], class, rate, e.set.params))
	}
	return ans, nil
}

// merge combines both strands in reference contig order.
func merge(idx fai.Index, watson, crick []call.MethylationCall) []call.MethylationCall {
	order := make(map[string]int)
	for i, name := range idx.Names() {
		order[name] = i
	}
	ans := make([]call.MethylationCall, 0, len(watson)+len(crick))
	ans = append(ans, watson...)
	ans = append(ans, crick...)
	sort.SliceStable(ans, func(i, j int) bool {
		return call.Less(order, ans[i], ans[j])
	})
	return ans
}

// write emits every output of a successful task as a single batch.
func (e *engine) write(paths report.Paths, s report.Summary, res calls) (err error) {
	var b report.Batch
	defer func() {
		if r := recover(); r != nil {
			err = failure.FromPanic(failure.OutputWrite, "writing outputs", r)
		}
		if err != nil {
			b.Abort()
		}
	}()

	wrap := func(op string, err error) error {
		if err == nil || failure.KindOf(err) != failure.Unknown {
			return err
		}
		return failure.New(failure.OutputWrite, op, err)
	}

	for _, st := range strand.Both {
		w, err := b.Create(paths.Methylation(st))
		if err != nil {
			return err
		}
		if err = report.WriteMethylation(w, res.strand[st], e.cfg.ReportAllPositions); err != nil {
			return wrap("writing "+paths.Methylation(st), err)
		}
	}

	w, err := b.Create(paths.Methylcytosines())
	if err != nil {
		return err
	}
	if err = report.WriteMethylcytosines(w, res.merged); err != nil {
		return wrap("writing "+paths.Methylcytosines(), err)
	}

	if w, err = b.Create(paths.Vcf()); err != nil {
		return err
	}
	if err = report.WriteVcf(w, s.Sample, s.Reference, res.idx, res.merged); err != nil {
		return wrap("writing "+paths.Vcf(), err)
	}

	if e.regions.Len() > 0 {
		if w, err = b.Create(paths.Regions()); err != nil {
			return err
		}
		if err = report.WriteRegions(w, e.regions, res.strand[strand.Watson], res.strand[strand.Crick]); err != nil {
			return wrap("writing "+paths.Regions(), err)
		}
	}

	if e.cfg.Plot {
		if w, err = b.Create(paths.Plot()); err != nil {
			return err
		}
		title := fmt.Sprintf("%s %s", s.Sample, s.Reference)
		if err = report.WritePlot(w, title, res.strand[strand.Watson], res.strand[strand.Crick]); err != nil {
			return wrap("writing "+paths.Plot(), err)
		}
	}

	if w, err = b.Create(paths.Summary()); err != nil {
		return err
	}
	if err = s.Write(w); err != nil {
		return wrap("writing "+paths.Summary(), err)
	}
	return b.Commit()
}

// writeFailed replaces any previous outputs of a task with its FAILED summary.
func writeFailed(paths report.Paths, s report.Summary) error {
	for _, st := range strand.Both {
		os.Remove(paths.Methylation(st))
	}
	for _, name := range []string{paths.Methylcytosines(), paths.Vcf(), paths.Regions(), paths.Plot()} {
		os.Remove(name)
	}
	var b report.Batch
	w, err := b.Create(paths.Summary())
	if err != nil {
		return err
	}
	if err = s.Write(w); err != nil {
		b.Abort()
		return failure.New(failure.OutputWrite, "writing "+paths.Summary(), err)
	}
	return b.Commit()
}
