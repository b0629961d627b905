package report

import (
	"errors"
	"fmt"
	"github.com/dasnellings/methylTools/failure"
	"github.com/vertgenlab/gonomics/fileio"
	"os"
	"path/filepath"
)

// Batch writes a group of files that become visible together. Each file is
// written under a hidden temporary name in the same directory and renamed
// into place by Commit. Abort removes every temporary file.
type Batch struct {
	files []*pending
	done  bool
}

type pending struct {
	final string
	tmp   string
	w     *fileio.EasyWriter
}

func tmpName(final string) string {
	return filepath.Join(filepath.Dir(final), ".tmp."+filepath.Base(final))
}

// Create opens a temporary file that will be renamed to final on Commit.
func (b *Batch) Create(final string) (w *fileio.EasyWriter, err error) {
	if b.done {
		return nil, failure.Newf(failure.OutputWrite, "creating "+final, "batch already finished")
	}
	if err = os.MkdirAll(filepath.Dir(final), 0755); err != nil {
		return nil, failure.New(failure.OutputWrite, "creating "+final, err)
	}
	p := &pending{final: final, tmp: tmpName(final)}
	defer func() {
		if r := recover(); r != nil {
			err = failure.FromPanic(failure.OutputWrite, "creating "+final, r)
		}
	}()
	p.w = fileio.EasyCreate(p.tmp)
	b.files = append(b.files, p)
	return p.w, nil
}

// Commit closes every file and renames them to their final names.
func (b *Batch) Commit() error {
	if b.done {
		return nil
	}
	var errs []error
	for _, p := range b.files {
		if err := p.w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		b.Abort()
		return failure.New(failure.OutputWrite, "closing output files", errors.Join(errs...))
	}
	for i, p := range b.files {
		if err := os.Rename(p.tmp, p.final); err != nil {
			for _, rest := range b.files[i:] {
				os.Remove(rest.tmp)
			}
			b.done = true
			return failure.New(failure.OutputWrite, fmt.Sprintf("renaming %s", p.final), err)
		}
	}
	b.done = true
	return nil
}

// Abort discards every file of the batch. It is safe to call after Commit.
func (b *Batch) Abort() {
	if b.done {
		return
	}
	for _, p := range b.files {
		p.w.Close()
		os.Remove(p.tmp)
	}
	b.done = true
}
