// Package strand defines the WATSON/CRICK dimension that every stage of the
// methylation caller is keyed on.
package strand

import (
	"fmt"
	"github.com/vertgenlab/gonomics/dna"
	"strings"
)

// Strand is one of the two bisulfite converted reference strands.
type Strand byte

const (
	Watson Strand = iota // reads aligned to the C->T converted reference
	Crick                // reads aligned to the G->A converted reference
)

// Both lists the strands in output order.
var Both = [2]Strand{Watson, Crick}

func (s Strand) String() string {
	switch s {
	case Watson:
		return "WATSON"
	case Crick:
		return "CRICK"
	default:
		return fmt.Sprintf("Strand(%d)", byte(s))
	}
}

// Parse accepts WATSON/CRICK (any case) as well as +/-.
func Parse(s string) (Strand, error) {
	switch strings.ToUpper(s) {
	case "WATSON", "W", "+":
		return Watson, nil
	case "CRICK", "C", "-":
		return Crick, nil
	}
	return Watson, fmt.Errorf("unrecognized strand: %q", s)
}

// TargetBase is the reference base that represents a cytosine on this strand.
func (s Strand) TargetBase() dna.Base {
	if s == Crick {
		return dna.G
	}
	return dna.C
}

// ConvertedBase is the base an unmethylated (converted) cytosine is read as,
// in reference orientation.
func (s Strand) ConvertedBase() dna.Base {
	if s == Crick {
		return dna.A
	}
	return dna.T
}
