// Package reads turns SAM/BAM alignments against a bisulfite converted
// reference into AlignedReads whose bases are laid out in reference coordinates.
package reads

import (
	"errors"
	"fmt"
	"github.com/vertgenlab/gonomics/cigar"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/sam"
)

const (
	flagPaired        uint16 = 0x1
	flagUnmapped      uint16 = 0x4
	flagSecondary     uint16 = 0x100
	flagSupplementary uint16 = 0x800
)

// ErrMalformed is wrapped by every error describing a record that cannot be
// interpreted as an alignment.
var ErrMalformed = errors.New("malformed alignment record")

// AlignedRead is a mapped read reduced to what methylation calling needs.
// Start, End, and the mate fields describe the untrimmed alignment and are
// used for clonal detection. Bases holds the read base observed at each
// reference position from RefStart onward after trimming; deleted reference
// positions hold dna.Gap.
type AlignedRead struct {
	Name           string
	Contig         string
	Start          int // 1-based leftmost aligned reference position
	End            int // 1-based rightmost aligned reference position
	Reverse        bool
	Paired         bool
	MateContig     string
	MateStart      int
	TemplateLength int
	MapQ           uint8

	RefStart int
	Bases    []dna.Base
}

// FivePrime returns the reference position of the first sequenced base.
func (r AlignedRead) FivePrime() int {
	if r.Reverse {
		return r.End
	}
	return r.Start
}

// RefEnd returns the last reference position covered by Bases.
func (r AlignedRead) RefEnd() int {
	return r.RefStart + len(r.Bases) - 1
}

// Options controls which alignments are kept and how they are trimmed.
type Options struct {
	MinMapQ    uint8
	Trim       bool
	TrimLength int
	Verbose    int
}

// Coordinates validates s and fills every AlignedRead field except the
// reference laid out bases. s must be mapped.
func Coordinates(s sam.Sam) (AlignedRead, error) {
	var r AlignedRead
	if len(s.Cigar) == 0 || s.Cigar[0].Op == '*' {
		return r, fmt.Errorf("%w: %s has no cigar", ErrMalformed, s.QName)
	}
	if len(s.Seq) == 0 {
		return r, fmt.Errorf("%w: %s has no sequence", ErrMalformed, s.QName)
	}
	if s.Pos == 0 {
		return r, fmt.Errorf("%w: %s is mapped without a position", ErrMalformed, s.QName)
	}
	queryLen, refLen := cigarLengths(s.Cigar)
	if queryLen != len(s.Seq) {
		return r, fmt.Errorf("%w: %s cigar %s covers %d bases but sequence has %d", ErrMalformed, s.QName, cigar.ToString(s.Cigar), queryLen, len(s.Seq))
	}

	r.Name = s.QName
	r.Contig = s.RName
	r.Start = int(s.Pos)
	r.End = r.Start + refLen - 1
	if refLen == 0 {
		r.End = r.Start
	}
	r.Reverse = !sam.IsPosStrand(s)
	r.MapQ = s.MapQ
	r.Paired = s.Flag&flagPaired != 0
	if r.Paired {
		r.MateContig = s.RNext
		if s.RNext == "=" {
			r.MateContig = s.RName
		}
		r.MateStart = int(s.PNext)
		r.TemplateLength = int(s.TLen)
		if r.TemplateLength < 0 {
			r.TemplateLength = -r.TemplateLength
		}
	}
	return r, nil
}

// FromSam converts a mapped alignment to an AlignedRead. When opt.Trim is set
// opt.TrimLength bases are soft clipped from both ends of the read before the
// bases are laid out. s is not modified.
func FromSam(s sam.Sam, opt Options) (AlignedRead, error) {
	r, err := Coordinates(s)
	if err != nil {
		return r, err
	}
	if opt.Trim && opt.TrimLength > 0 {
		s.Cigar = append([]cigar.Cigar(nil), s.Cigar...)
		ClipEnds(&s, opt.TrimLength)
	}
	r.RefStart = int(s.Pos)
	r.Bases = layout(s)
	dna.AllToUpper(r.Bases)
	return r, nil
}

// layout expands the read sequence onto the reference following the cigar.
func layout(s sam.Sam) []dna.Base {
	_, refLen := cigarLengths(s.Cigar)
	ans := make([]dna.Base, 0, refLen)
	var q, j int
	for i := range s.Cigar {
		switch s.Cigar[i].Op {
		case 'M', '=', 'X':
			ans = append(ans, s.Seq[q:q+s.Cigar[i].RunLength]...)
		case 'D', 'N':
			for j = 0; j < s.Cigar[i].RunLength; j++ {
				ans = append(ans, dna.Gap)
			}
		}
		if cigar.ConsumesQuery(s.Cigar[i].Op) {
			q += s.Cigar[i].RunLength
		}
	}
	return ans
}

func cigarLengths(c []cigar.Cigar) (query, ref int) {
	for i := range c {
		if cigar.ConsumesQuery(c[i].Op) {
			query += c[i].RunLength
		}
		if cigar.ConsumesReference(c[i].Op) {
			ref += c[i].RunLength
		}
	}
	return
}

// Stats counts what happened to the records of one alignment input.
type Stats struct {
	Records   int
	Kept      int
	Malformed int
	Unmapped  int
	Secondary int
	LowMapQ   int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Records += other.Records
	s.Kept += other.Kept
	s.Malformed += other.Malformed
	s.Unmapped += other.Unmapped
	s.Secondary += other.Secondary
	s.LowMapQ += other.LowMapQ
}

// skip reports whether s is filtered before conversion and tallies the reason.
func (st *Stats) skip(s sam.Sam, opt Options) bool {
	switch {
	case s.Flag&flagUnmapped != 0:
		st.Unmapped++
	case s.Flag&(flagSecondary|flagSupplementary) != 0:
		st.Secondary++
	case s.MapQ < opt.MinMapQ:
		st.LowMapQ++
	default:
		return false
	}
	return true
}
