// Package regions loads BED intervals into interval trees for point queries.
package regions

import (
	"fmt"
	"github.com/vertgenlab/gonomics/bed"
	"github.com/vertgenlab/gonomics/interval"
	"os"
	"sort"
)

// Set is a collection of BED intervals indexed by contig. The zero value is
// an empty set.
type Set struct {
	beds []bed.Bed
	tree map[string]*interval.IntervalNode
}

// Load reads every BED file in files into a single Set.
func Load(files ...string) (s Set, err error) {
	var curr string
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading %s: %v", curr, r)
		}
	}()
	var beds []bed.Bed
	for _, curr = range files {
		if _, err = os.Stat(curr); err != nil {
			return s, err
		}
		beds = append(beds, bed.Read(curr)...)
	}
	return New(beds), nil
}

// New builds a Set from beds.
func New(beds []bed.Bed) Set {
	var s Set
	if len(beds) == 0 {
		return s
	}
	s.beds = make([]bed.Bed, len(beds))
	copy(s.beds, beds)
	sort.SliceStable(s.beds, func(i, j int) bool {
		if s.beds[i].Chrom != s.beds[j].Chrom {
			return s.beds[i].Chrom < s.beds[j].Chrom
		}
		return s.beds[i].ChromStart < s.beds[j].ChromStart
	})
	intervals := make([]interval.Interval, len(s.beds))
	for i := range s.beds {
		intervals[i] = s.beds[i]
	}
	s.tree = interval.BuildTree(intervals)
	return s
}

// Len returns the number of intervals in the set.
func (s Set) Len() int {
	return len(s.beds)
}

// Beds returns the intervals sorted by contig name and start.
func (s Set) Beds() []bed.Bed {
	return s.beds
}

// Contains reports whether the 1-based position pos of contig falls inside
// any interval.
func (s Set) Contains(contig string, pos int) bool {
	return len(s.Overlapping(contig, pos)) > 0
}

// Overlapping returns every interval containing the 1-based position pos.
func (s Set) Overlapping(contig string, pos int) []bed.Bed {
	if len(s.beds) == 0 || s.tree[contig] == nil {
		return nil
	}
	query := bed.Bed{Chrom: contig, ChromStart: pos - 1, ChromEnd: pos}
	hits := interval.Query(s.tree, query, "any")
	ans := make([]bed.Bed, 0, len(hits))
	for i := range hits {
		if b, ok := hits[i].(bed.Bed); ok {
			ans = append(ans, b)
		}
	}
	return ans
}
