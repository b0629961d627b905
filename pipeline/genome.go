package pipeline

import (
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/failure"
	"github.com/dasnellings/methylTools/reference"
	"sync"
)

// genomeCache counts the cytosine contexts of each reference once per run,
// no matter how many samples were aligned to it.
type genomeCache struct {
	mu      sync.Mutex
	entries map[string]*genomeEntry
}

type genomeEntry struct {
	once   sync.Once
	counts seqctx.Counts
	err    error
}

func newGenomeCache() *genomeCache {
	return &genomeCache{entries: make(map[string]*genomeEntry)}
}

// get returns the context counts of every reported contig of the reference
// at filename, computing them from acc on first use.
func (c *genomeCache) get(filename string, acc reference.Accessor, e *engine) (seqctx.Counts, error) {
	c.mu.Lock()
	entry := c.entries[filename]
	if entry == nil {
		entry = new(genomeEntry)
		c.entries[filename] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		defer guard(&entry.err, failure.InputAccess, "counting contexts of "+filename)
		for _, name := range acc.Index().Names() {
			if e.control.IsControlContig(name) {
				continue
			}
			seq, err := reference.Contig(acc, name)
			if err != nil {
				entry.err = failure.New(failure.InputAccess, "counting contexts of "+name, err)
				return
			}
			counts := seqctx.CountGenome(seq, e.set.boundary)
			entry.counts.Add(counts)
		}
	})
	return entry.counts, entry.err
}
