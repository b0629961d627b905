// Package errmodel provides the per strand bisulfite error rate that the
// binomial test compares each cytosine against: either estimated from control
// DNA known to be unmethylated, or supplied by the user.
package errmodel

import (
	"fmt"
	"github.com/dasnellings/methylTools/failure"
	"github.com/dasnellings/methylTools/pileup"
	"github.com/dasnellings/methylTools/regions"
	"github.com/dasnellings/methylTools/strand"
	"math"
	"strings"
)

// Rate is the error rate of one strand and the evidence behind it.
type Rate struct {
	Rate       float64
	Methylated int // unconverted reads observed in the control
	Depth      int // informative reads observed in the control
	Estimated  bool
}

// Model holds a frozen Rate per strand.
type Model struct {
	Mode  string
	Rates [2]Rate
}

// Rate returns the error rate of strand s.
func (m Model) Rate(s strand.Strand) float64 {
	return m.Rates[s].Rate
}

func (m Model) String() string {
	var sb strings.Builder
	sb.WriteString(m.Mode)
	for _, s := range strand.Both {
		if m.Rates[s].Estimated {
			fmt.Fprintf(&sb, " %s=%g (%d/%d)", s, m.Rates[s].Rate, m.Rates[s].Methylated, m.Rates[s].Depth)
		} else {
			fmt.Fprintf(&sb, " %s=%g", s, m.Rates[s].Rate)
		}
	}
	return sb.String()
}

// Source is where the error rates come from: a Control or a Fixed.
type Source interface {
	isSource()
}

// Fixed supplies the error rate of each strand directly.
type Fixed struct {
	Watson float64
	Crick  float64
}

func (Fixed) isSource() {}

// Validate checks that both rates are probabilities.
func (f Fixed) Validate() error {
	for _, r := range []float64{f.Watson, f.Crick} {
		if r < 0 || r > 1 || math.IsNaN(r) {
			return fmt.Errorf("fixed error rate %g is not in [0,1]", r)
		}
	}
	return nil
}

// Control estimates the error rates from cytosines inside Regions or on any
// contig named Label. Unconverted reads at those positions are assumed to be
// conversion failures.
type Control struct {
	Regions  regions.Set
	Label    string
	MinDepth int
}

func (Control) isSource() {}

// Empty reports whether the control defines no positions at all.
func (c Control) Empty() bool {
	return c.Regions.Len() == 0 && c.Label == ""
}

// Contains reports whether the 1-based position pos of contig is control.
func (c Control) Contains(contig string, pos int) bool {
	return c.IsControlContig(contig) || c.Regions.Contains(contig, pos)
}

// IsControlContig reports whether contig belongs to the control genome.
// Such contigs are not reported.
func (c Control) IsControlContig(contig string) bool {
	return c.Label != "" && contig == c.Label
}

// Build freezes a Model from src. For a Control source watson and crick are
// the sorted cells of the task. A Control whose evidence on either strand is
// below MinDepth fails with failure.InsufficientControlData.
func Build(src Source, watson, crick []pileup.Cell) (Model, error) {
	switch s := src.(type) {
	case Fixed:
		if err := s.Validate(); err != nil {
			return Model{}, failure.New(failure.InvalidConfig, "building error model", err)
		}
		return Model{
			Mode: "fixed",
			Rates: [2]Rate{
				strand.Watson: {Rate: s.Watson},
				strand.Crick:  {Rate: s.Crick},
			},
		}, nil

	case Control:
		if s.Empty() {
			return Model{}, failure.Newf(failure.InvalidConfig, "building error model", "control defines no regions and no control genome label")
		}
		m := Model{Mode: "control"}
		var err error
		if m.Rates[strand.Watson], err = estimate(s, strand.Watson, watson); err != nil {
			return Model{}, err
		}
		if m.Rates[strand.Crick], err = estimate(s, strand.Crick, crick); err != nil {
			return Model{}, err
		}
		return m, nil

	default:
		return Model{}, failure.Newf(failure.InvalidConfig, "building error model", "unknown error model source %T", src)
	}
}

func estimate(c Control, st strand.Strand, cells []pileup.Cell) (Rate, error) {
	r := Rate{Estimated: true}
	for i := range cells {
		if !c.Contains(cells[i].Contig, cells[i].Pos) {
			continue
		}
		r.Methylated += cells[i].Methylated
		r.Depth += cells[i].Depth()
	}
	minDepth := c.MinDepth
	if minDepth < 1 {
		minDepth = 1
	}
	if r.Depth < minDepth {
		return r, failure.Newf(failure.InsufficientControlData, "estimating "+st.String()+" error rate",
			"control covered by %d informative reads, need at least %d", r.Depth, minDepth)
	}
	r.Rate = float64(r.Methylated) / float64(r.Depth)
	return r, nil
}
