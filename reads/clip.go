package reads

import (
	"github.com/vertgenlab/gonomics/cigar"
	"github.com/vertgenlab/gonomics/sam"
	"golang.org/x/exp/slices"
)

// ClipEnds soft clips clipLen query bases from each end of s. Pos is shifted
// past any reference bases (matched or deleted) removed from the front.
// Reads without a cigar or made entirely of soft clips are left untouched.
func ClipEnds(s *sam.Sam, clipLen int) {
	if s.Cigar == nil || len(s.Cigar) == 0 || s.Cigar[0].Op == '*' {
		return
	}

	var anyNonClip bool
	for i := range s.Cigar {
		if s.Cigar[i].Op != 'S' {
			anyNonClip = true
			break
		}
	}

	if !anyNonClip {
		return
	}

	clipFwd(s, clipLen)
	clipRev(s, clipLen)

	// collapse cigar if everything is soft clipped
	if len(s.Cigar) == 2 && s.Cigar[0].Op == 'S' && s.Cigar[1].Op == 'S' {
		s.Cigar[0].RunLength += s.Cigar[1].RunLength
		s.Cigar = s.Cigar[:1]
	}
}

func clipFwd(s *sam.Sam, clipLen int) {
	if clipLen < 1 {
		return
	}

	// check if first index is soft clip, if not make a soft clip with len = 0
	if s.Cigar[0].Op != 'S' {
		s.Cigar = slices.Insert(s.Cigar, 0, cigar.Cigar{Op: 'S', RunLength: 0})
	}
	var numToClip int = clipLen
	var currNumToClip int
	for i := 1; numToClip > 0 && i < len(s.Cigar); i++ {
		// increment pos as well as cigar
		switch s.Cigar[i].Op {
		case 'M', '=', 'X':
			currNumToClip = min(s.Cigar[i].RunLength, numToClip)
			s.Cigar[i].RunLength -= currNumToClip
			s.Cigar[0].RunLength += currNumToClip
			s.Pos += uint32(currNumToClip)
			numToClip -= currNumToClip

		case 'D', 'N':
			s.Pos += uint32(s.Cigar[i].RunLength)
			s.Cigar[i].RunLength = 0

		case 'I':
			currNumToClip = min(s.Cigar[i].RunLength, numToClip)
			s.Cigar[0].RunLength += currNumToClip
			s.Cigar[i].RunLength -= currNumToClip
			numToClip -= currNumToClip

		case 'S':
			s.Cigar = cleanCigar(s.Cigar)
			return
		}
	}
	s.Cigar = cleanCigar(s.Cigar)
}

func clipRev(s *sam.Sam, clipLen int) {
	if clipLen < 1 {
		return
	}

	// check if last index is soft clip, if not make a soft clip with len = 0
	if s.Cigar[len(s.Cigar)-1].Op != 'S' {
		s.Cigar = append(s.Cigar, cigar.Cigar{Op: 'S', RunLength: 0})
	}
	var numToClip int = clipLen
	var currNumToClip int
	lastIdx := len(s.Cigar) - 1
	for i := lastIdx - 1; numToClip > 0 && i >= 0; i-- {
		switch s.Cigar[i].Op {
		case 'M', '=', 'X', 'I':
			currNumToClip = min(s.Cigar[i].RunLength, numToClip)
			s.Cigar[i].RunLength -= currNumToClip
			s.Cigar[lastIdx].RunLength += currNumToClip
			numToClip -= currNumToClip

		case 'D', 'N':
			s.Cigar[i].RunLength = 0

		case 'S':
			s.Cigar = cleanCigar(s.Cigar)
			return
		}
	}
	s.Cigar = cleanCigar(s.Cigar)
}

func cleanCigar(c []cigar.Cigar) []cigar.Cigar {
	// remove all indexes with RunLength of 0
	for i := 0; i < len(c); i++ {
		if c[i].RunLength == 0 {
			c = slices.Delete(c, i, i+1)
			i--
		}
	}
	return c
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
