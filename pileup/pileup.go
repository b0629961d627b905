// Package pileup accumulates, per reference cytosine of one strand, how many
// reads show it as methylated (unconverted) or unmethylated (converted).
package pileup

import (
	"fmt"
	"github.com/dasnellings/methylTools/reads"
	"github.com/dasnellings/methylTools/reference"
	"github.com/dasnellings/methylTools/strand"
	"github.com/vertgenlab/gonomics/dna"
	"log"
	"sort"
)

// Outcome is the interpretation of one read base at a target cytosine.
type Outcome byte

const (
	Methylated Outcome = iota
	Unmethylated
	Other
)

// Classify interprets the read base observed at a reference position on
// strand s. The second return is false when ref is not a cytosine of s.
func Classify(s strand.Strand, ref, read dna.Base) (Outcome, bool) {
	if ref != s.TargetBase() {
		return Other, false
	}
	switch read {
	case s.TargetBase():
		return Methylated, true
	case s.ConvertedBase():
		return Unmethylated, true
	default:
		return Other, true
	}
}

// Cell holds the evidence collected at one cytosine.
type Cell struct {
	Contig       string
	Pos          int // 1-based
	Strand       strand.Strand
	Methylated   int
	Unmethylated int
	Other        int
	Bases        string // observed read bases in read order
}

// Depth is the number of reads informative for methylation.
func (c Cell) Depth() int {
	return c.Methylated + c.Unmethylated
}

// Total counts every read covering the cell, informative or not.
func (c Cell) Total() int {
	return c.Depth() + c.Other
}

// Level is the fraction of informative reads that were methylated.
func (c Cell) Level() float64 {
	if c.Depth() == 0 {
		return 0
	}
	return float64(c.Methylated) / float64(c.Depth())
}

type cell struct {
	methylated   int
	unmethylated int
	other        int
	bases        []byte
}

type position struct {
	contig string
	pos    int
}

// Options controls which reads are admitted to a Pileup.
type Options struct {
	RemoveBadMappings bool
	MaxMismatches     int
	Verbose           int
}

// Stats counts reads rejected while building a Pileup.
type Stats struct {
	Added        int
	BadMappings  int
	OffReference int
}

// Pileup collects cells of one strand. It is not safe for concurrent use;
// the WATSON and CRICK pileups of a task are built independently.
type Pileup struct {
	strand strand.Strand
	ref    reference.Accessor
	opt    Options
	cells  map[position]*cell
	stats  Stats
}

// New returns an empty Pileup for strand s.
func New(s strand.Strand, ref reference.Accessor, opt Options) *Pileup {
	return &Pileup{
		strand: s,
		ref:    ref,
		opt:    opt,
		cells:  make(map[position]*cell),
	}
}

// Build adds every read of rs to a new Pileup.
func Build(rs []reads.AlignedRead, s strand.Strand, ref reference.Accessor, opt Options) *Pileup {
	p := New(s, ref, opt)
	for i := range rs {
		p.Add(rs[i])
	}
	return p
}

// Strand returns the strand the pileup was built for.
func (p *Pileup) Strand() strand.Strand {
	return p.strand
}

// Stats returns the read counts so far.
func (p *Pileup) Stats() Stats {
	return p.stats
}

// Add folds the bases of r into the pileup. Reads on contigs missing from the
// reference are counted and skipped. With RemoveBadMappings set, reads with
// more than MaxMismatches mismatches outside target cytosines are skipped.
func (p *Pileup) Add(r reads.AlignedRead) {
	if len(r.Bases) == 0 {
		p.stats.Added++
		return
	}
	refSeq, err := p.ref.Fetch(r.Contig, r.RefStart, len(r.Bases))
	if err != nil {
		p.stats.OffReference++
		if p.opt.Verbose > 1 {
			log.Printf("WARNING: skipping %s: %s", r.Name, err)
		}
		return
	}

	if p.opt.RemoveBadMappings && Mismatches(p.strand, refSeq, r.Bases) > p.opt.MaxMismatches {
		p.stats.BadMappings++
		return
	}
	p.stats.Added++

	var outcome Outcome
	var isTarget bool
	var c *cell
	for i := range refSeq {
		if r.Bases[i] == dna.Gap {
			continue
		}
		if outcome, isTarget = Classify(p.strand, refSeq[i], r.Bases[i]); !isTarget {
			continue
		}
		key := position{contig: r.Contig, pos: r.RefStart + i}
		if c = p.cells[key]; c == nil {
			c = new(cell)
			p.cells[key] = c
		}
		switch outcome {
		case Methylated:
			c.methylated++
		case Unmethylated:
			c.unmethylated++
		default:
			c.other++
		}
		c.bases = append(c.bases, byte(dna.BaseToRune(r.Bases[i])))
	}
}

// Mismatches counts read bases that differ from the reference at positions
// that are not cytosines of s. N and deleted positions are ignored.
func Mismatches(s strand.Strand, refSeq, readSeq []dna.Base) int {
	var ans int
	for i := range refSeq {
		if i >= len(readSeq) {
			break
		}
		switch {
		case refSeq[i] == s.TargetBase():
			continue
		case refSeq[i] == dna.N || readSeq[i] == dna.N || readSeq[i] == dna.Gap:
			continue
		case readSeq[i] != refSeq[i]:
			ans++
		}
	}
	return ans
}

// Len returns the number of cells in the pileup.
func (p *Pileup) Len() int {
	return len(p.cells)
}

// Sorted returns a copy of every cell ordered by the contig order of the
// reference and then by position. Contigs absent from the reference index
// sort last by name.
func (p *Pileup) Sorted() []Cell {
	order := make(map[string]int)
	for i, name := range p.ref.Index().Names() {
		order[name] = i
	}
	ans := make([]Cell, 0, len(p.cells))
	for key, c := range p.cells {
		ans = append(ans, Cell{
			Contig:       key.contig,
			Pos:          key.pos,
			Strand:       p.strand,
			Methylated:   c.methylated,
			Unmethylated: c.unmethylated,
			Other:        c.other,
			Bases:        string(c.bases),
		})
	}
	sort.Slice(ans, func(i, j int) bool {
		oi, foundI := order[ans[i].Contig]
		oj, foundJ := order[ans[j].Contig]
		switch {
		case foundI != foundJ:
			return foundI
		case oi != oj:
			return oi < oj
		case ans[i].Contig != ans[j].Contig:
			return ans[i].Contig < ans[j].Contig
		default:
			return ans[i].Pos < ans[j].Pos
		}
	})
	return ans
}

func (c Cell) String() string {
	return fmt.Sprintf("%s:%d(%s) %d/%d", c.Contig, c.Pos, c.Strand, c.Methylated, c.Depth())
}
