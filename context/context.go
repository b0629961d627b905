// Package context classifies reference cytosines into the CG, CHG, and CHH
// sequence contexts (H = A, C, or T) used to stratify methylation calls.
package context

import (
	"fmt"
	"github.com/dasnellings/methylTools/strand"
	"github.com/vertgenlab/gonomics/dna"
	"strings"
)

// Context is the sequence context of a cytosine read on its own strand.
type Context byte

const (
	CG Context = iota
	CHG
	CHH
)

// All lists the contexts in output order.
var All = [3]Context{CG, CHG, CHH}

func (c Context) String() string {
	switch c {
	case CG:
		return "CG"
	case CHG:
		return "CHG"
	case CHH:
		return "CHH"
	default:
		return fmt.Sprintf("Context(%d)", byte(c))
	}
}

// Parse converts CG, CHG, or CHH (any case) to a Context.
func Parse(s string) (Context, error) {
	switch strings.ToUpper(s) {
	case "CG", "CPG":
		return CG, nil
	case "CHG":
		return CHG, nil
	case "CHH":
		return CHH, nil
	}
	return CHH, fmt.Errorf("unrecognized context: %q", s)
}

// Class is the result of classifying a single cytosine. Boundary is set when
// the two base window ran off the end of the contig and the context was
// assigned by the BoundaryPolicy rather than observed.
type Class struct {
	Context  Context
	Boundary bool
}

// BoundaryPolicy decides what happens to cytosines whose context window is
// truncated by a contig end.
type BoundaryPolicy byte

const (
	BoundaryCHH  BoundaryPolicy = iota // report as CHH with the boundary flag set
	BoundarySkip                       // do not report the position
)

func (p BoundaryPolicy) String() string {
	if p == BoundarySkip {
		return "skip"
	}
	return "chh"
}

// ParseBoundaryPolicy accepts "chh" (or empty) and "skip".
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(s) {
	case "", "chh":
		return BoundaryCHH, nil
	case "skip":
		return BoundarySkip, nil
	}
	return BoundaryCHH, fmt.Errorf("unrecognized boundary policy: %q", s)
}

// Classify returns the context of the cytosine at the 1-based position pos of
// seq on strand s. seq must be the full upper case contig. On WATSON the two
// bases after pos are inspected; on CRICK the complements of the two bases
// before pos. The second return is false only when the window is truncated and
// the policy is BoundarySkip.
func Classify(seq []dna.Base, pos int, s strand.Strand, policy BoundaryPolicy) (Class, bool) {
	first, okFirst := neighbor(seq, pos, s, 1)
	if okFirst && first == dna.G {
		return Class{Context: CG}, true
	}
	second, okSecond := neighbor(seq, pos, s, 2)
	if !okFirst || !okSecond {
		if policy == BoundarySkip {
			return Class{Context: CHH, Boundary: true}, false
		}
		return Class{Context: CHH, Boundary: true}, true
	}
	if second == dna.G {
		return Class{Context: CHG}, true
	}
	return Class{Context: CHH}, true
}

// neighbor returns the base dist positions downstream of pos on strand s, in
// that strand's orientation.
func neighbor(seq []dna.Base, pos int, s strand.Strand, dist int) (dna.Base, bool) {
	idx := pos - 1
	if s == strand.Crick {
		idx -= dist
	} else {
		idx += dist
	}
	if idx < 0 || idx >= len(seq) {
		return dna.N, false
	}
	if s == strand.Crick {
		return dna.ComplementSingleBase(seq[idx]), true
	}
	return seq[idx], true
}

// Motif returns the three base sequence starting at the cytosine on its own
// strand (e.g. "CAG"). Positions past a contig end are written as N.
func Motif(seq []dna.Base, pos int, s strand.Strand) string {
	motif := make([]dna.Base, 3)
	motif[0] = dna.C
	for dist := 1; dist < 3; dist++ {
		b, ok := neighbor(seq, pos, s, dist)
		if !ok {
			b = dna.N
		}
		motif[dist] = b
	}
	return dna.BasesToString(motif)
}
