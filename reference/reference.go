// Package reference provides read-only access to the original (unconverted)
// genome sequence a methylation task was aligned against.
package reference

import (
	"fmt"
	"github.com/dasnellings/methylTools/fai"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/fasta"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Accessor returns bases of a reference. All returned bases are upper case.
// Implementations are safe for concurrent use.
type Accessor interface {
	// Fetch returns up to length bases of contig starting at the 1-based
	// coordinate start. The result is shorter than length when the window
	// runs past the end of the contig.
	Fetch(contig string, start, length int) ([]dna.Base, error)

	// Index describes the contigs of the reference in file order.
	Index() fai.Index

	Close() error
}

// Open chooses an indexed accessor when filename.fai exists and otherwise
// loads the whole reference into memory.
func Open(filename string) (Accessor, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filename + ".fai"); err == nil {
		return NewIndexed(filename)
	}
	return NewMemory(filename)
}

// Name derives a reference identifier from a fasta file name.
func Name(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, ".gz")
	for _, ext := range []string{".fasta", ".fa", ".fna", ".fas"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Contig returns the entire sequence of a contig.
func Contig(a Accessor, contig string) ([]dna.Base, error) {
	length, found := a.Index().Length(contig)
	if !found {
		return nil, fmt.Errorf("contig %s not found in reference", contig)
	}
	return a.Fetch(contig, 1, length)
}

// Memory holds every contig of a fasta file in memory.
type Memory struct {
	seqs map[string][]dna.Base
	idx  fai.Index
}

// NewMemory reads filename with fasta.Read.
func NewMemory(filename string) (m *Memory, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading %s: %v", filename, r)
		}
	}()
	return FromRecords(fasta.Read(filename))
}

// FromRecords builds a Memory accessor from already parsed fasta records.
func FromRecords(records []fasta.Fasta) (*Memory, error) {
	m := &Memory{seqs: make(map[string][]dna.Base, len(records))}
	names := make([]string, 0, len(records))
	lengths := make([]int, 0, len(records))
	for i := range records {
		if _, dup := m.seqs[records[i].Name]; dup {
			return nil, fmt.Errorf("duplicate contig name in reference: %s", records[i].Name)
		}
		seq := make([]dna.Base, len(records[i].Seq))
		copy(seq, records[i].Seq)
		dna.AllToUpper(seq)
		m.seqs[records[i].Name] = seq
		names = append(names, records[i].Name)
		lengths = append(lengths, len(seq))
	}
	m.idx = fai.New(names, lengths)
	return m, nil
}

func (m *Memory) Fetch(contig string, start, length int) ([]dna.Base, error) {
	seq, found := m.seqs[contig]
	if !found {
		return nil, fmt.Errorf("contig %s not found in reference", contig)
	}
	if start < 1 || start > len(seq) || length < 0 {
		return nil, fmt.Errorf("window %s:%d+%d outside of contig (length %d)", contig, start, length, len(seq))
	}
	end := start - 1 + length
	if end > len(seq) {
		end = len(seq)
	}
	return seq[start-1 : end], nil
}

func (m *Memory) Index() fai.Index {
	return m.idx
}

func (m *Memory) Close() error {
	return nil
}

// Indexed reads windows on demand through a fasta.Seeker.
type Indexed struct {
	mu     sync.Mutex
	seeker *fasta.Seeker
	idx    fai.Index
}

// NewIndexed opens filename using the index at filename.fai.
func NewIndexed(filename string) (ix *Indexed, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("opening %s: %v", filename, r)
		}
	}()
	idx, err := fai.ReadIndex(filename + ".fai")
	if err != nil {
		return nil, err
	}
	return &Indexed{seeker: fasta.NewSeeker(filename, filename+".fai"), idx: idx}, nil
}

func (ix *Indexed) Fetch(contig string, start, length int) (seq []dna.Base, err error) {
	contigLen, found := ix.idx.Length(contig)
	if !found {
		return nil, fmt.Errorf("contig %s not found in reference", contig)
	}
	if start < 1 || start > contigLen || length < 0 {
		return nil, fmt.Errorf("window %s:%d+%d outside of contig (length %d)", contig, start, length, contigLen)
	}
	end := start - 1 + length
	if end > contigLen {
		end = contigLen
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("seeking %s:%d-%d: %v", contig, start, end, r)
		}
	}()
	seq, err = fasta.SeekByName(ix.seeker, contig, start-1, end)
	if err != nil {
		return nil, err
	}
	dna.AllToUpper(seq)
	return seq, nil
}

func (ix *Indexed) Index() fai.Index {
	return ix.idx
}

func (ix *Indexed) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.seeker.Close()
}
