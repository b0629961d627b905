// Package clonal removes PCR duplicates: reads that share the same mapping
// signature and therefore likely derive from the same original molecule.
package clonal

import (
	"fmt"
	"github.com/dasnellings/methylTools/reads"
	"github.com/vertgenlab/gonomics/sam"
	"strings"
)

// Key is the mapping signature shared by clonal reads. Mate fields are zero
// for unpaired reads.
type Key struct {
	Contig         string
	Reverse        bool
	FivePrime      int
	MateContig     string
	MateStart      int
	TemplateLength int
}

// KeyOf returns the signature of r computed from its untrimmed alignment.
func KeyOf(r reads.AlignedRead) Key {
	k := Key{
		Contig:    r.Contig,
		Reverse:   r.Reverse,
		FivePrime: r.FivePrime(),
	}
	if r.Paired {
		k.MateContig = r.MateContig
		k.MateStart = r.MateStart
		k.TemplateLength = r.TemplateLength
	}
	return k
}

// Policy picks which member of a clonal group is kept.
type Policy byte

const (
	First       Policy = iota // first read in input order
	HighestMapQ               // highest mapping quality, ties go to the first read
)

func (p Policy) String() string {
	if p == HighestMapQ {
		return "mapq"
	}
	return "first"
}

// ParsePolicy accepts "first" (or empty) and "mapq".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "first":
		return First, nil
	case "mapq":
		return HighestMapQ, nil
	}
	return First, fmt.Errorf("unrecognized clonal policy: %q", s)
}

// Filter returns the reads of in with clonal duplicates removed along with the
// number of reads removed. The kept reads are in the order their group was
// first seen. in is not modified.
func Filter(in []reads.AlignedRead, policy Policy) ([]reads.AlignedRead, int) {
	kept := make([]reads.AlignedRead, 0, len(in))
	slot := make(map[Key]int, len(in))
	var idx int
	var seen bool
	var k Key
	for i := range in {
		k = KeyOf(in[i])
		if idx, seen = slot[k]; !seen {
			slot[k] = len(kept)
			kept = append(kept, in[i])
			continue
		}
		if policy == HighestMapQ && in[i].MapQ > kept[idx].MapQ {
			kept[idx] = in[i]
		}
	}
	return kept, len(in) - len(kept)
}

// GoFilter removes clonal duplicates from a stream of alignments. Records that
// are unmapped or cannot be keyed are passed through. With the First policy
// records are forwarded as they arrive; HighestMapQ buffers the input until it
// is closed. The number of removed records is stored in removed before the
// returned channel is closed.
func GoFilter(in <-chan sam.Sam, policy Policy, removed *int) <-chan sam.Sam {
	out := make(chan sam.Sam, 1000)
	if policy == HighestMapQ {
		go filterBuffered(in, out, removed)
	} else {
		go filterStreaming(in, out, removed)
	}
	return out
}

func samKey(s sam.Sam) (Key, bool) {
	if sam.IsUnmapped(s) {
		return Key{}, false
	}
	r, err := reads.Coordinates(s)
	if err != nil {
		return Key{}, false
	}
	return KeyOf(r), true
}

func filterStreaming(in <-chan sam.Sam, out chan<- sam.Sam, removed *int) {
	seen := make(map[Key]struct{})
	var count int
	for s := range in {
		k, ok := samKey(s)
		if !ok {
			out <- s
			continue
		}
		if _, dup := seen[k]; dup {
			count++
			continue
		}
		seen[k] = struct{}{}
		out <- s
	}
	*removed = count
	close(out)
}

func filterBuffered(in <-chan sam.Sam, out chan<- sam.Sam, removed *int) {
	var kept []sam.Sam
	slot := make(map[Key]int)
	var count int
	for s := range in {
		k, ok := samKey(s)
		if !ok {
			kept = append(kept, s)
			continue
		}
		idx, seen := slot[k]
		if !seen {
			slot[k] = len(kept)
			kept = append(kept, s)
			continue
		}
		count++
		if s.MapQ > kept[idx].MapQ {
			kept[idx] = s
		}
	}
	for i := range kept {
		out <- kept[i]
	}
	*removed = count
	close(out)
}
