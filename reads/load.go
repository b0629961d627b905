package reads

import (
	"errors"
	"fmt"
	"github.com/dasnellings/methylTools/failure"
	"github.com/vertgenlab/gonomics/cigar"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/sam"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// Load reads every alignment in path (SAM, gzipped SAM, or BAM) and returns
// the reads that pass opt. Records that cannot be interpreted are skipped,
// counted in Stats.Malformed, and logged once per file as a warning. The
// returned error is a *failure.Error.
func Load(path string, opt Options) (ans []AlignedRead, stats Stats, err error) {
	if _, err = os.Stat(path); err != nil {
		return nil, stats, failure.New(failure.InputAccess, "reading alignments", err)
	}
	if strings.HasSuffix(path, ".bam") {
		ans, stats, err = loadBam(path, opt)
	} else {
		ans, stats, err = loadSam(path, opt)
	}
	if err == nil && stats.Malformed > 0 {
		log.Printf("WARNING: skipped %d malformed records in %s", stats.Malformed, path)
	}
	return ans, stats, err
}

// accept runs the filters on s and appends the converted read to ans.
func accept(ans []AlignedRead, s sam.Sam, stats *Stats, opt Options) []AlignedRead {
	stats.Records++
	if stats.skip(s, opt) {
		return ans
	}
	r, err := FromSam(s, opt)
	if err != nil {
		stats.Malformed++
		if opt.Verbose > 1 {
			log.Printf("WARNING: skipping record: %s", err)
		}
		return ans
	}
	stats.Kept++
	return append(ans, r)
}

func loadBam(path string, opt Options) (ans []AlignedRead, stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure.FromPanic(failure.MalformedRecord, "decoding "+path, r)
		}
	}()
	br, _ := sam.OpenBam(path)
	defer br.Close()
	var s sam.Sam
	for {
		_, err = sam.DecodeBam(br, &s)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, failure.New(failure.InputAccess, "decoding "+path, err)
		}
		ans = accept(ans, s, &stats, opt)
	}
	return ans, stats, nil
}

func loadSam(path string, opt Options) (ans []AlignedRead, stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure.FromPanic(failure.InputAccess, "reading "+path, r)
		}
	}()
	file := fileio.EasyOpen(path)
	defer file.Close()
	var line string
	var done bool
	var s sam.Sam
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		if strings.HasPrefix(line, "@") {
			continue
		}
		s, err = ParseLine(line)
		if err != nil {
			stats.Records++
			stats.Malformed++
			if opt.Verbose > 1 {
				log.Printf("WARNING: skipping record: %s", err)
			}
			continue
		}
		ans = accept(ans, s, &stats, opt)
	}
	return ans, stats, nil
}

// ParseLine decodes a single SAM alignment line. Lines with fewer than eleven
// columns, non-numeric numeric columns, or invalid bases return an error
// wrapping ErrMalformed instead of aborting the read.
func ParseLine(line string) (s sam.Sam, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()
	words := strings.SplitN(line, "\t", 12)
	if len(words) < 11 {
		return s, fmt.Errorf("%w: expected at least 11 columns, found %d", ErrMalformed, len(words))
	}

	var flag, pos, mapq, pnext uint64
	var tlen int64
	if flag, err = strconv.ParseUint(words[1], 10, 16); err != nil {
		return s, errors.Join(ErrMalformed, err)
	}
	if pos, err = strconv.ParseUint(words[3], 10, 32); err != nil {
		return s, errors.Join(ErrMalformed, err)
	}
	if mapq, err = strconv.ParseUint(words[4], 10, 8); err != nil {
		return s, errors.Join(ErrMalformed, err)
	}
	if pnext, err = strconv.ParseUint(words[7], 10, 32); err != nil {
		return s, errors.Join(ErrMalformed, err)
	}
	if tlen, err = strconv.ParseInt(words[8], 10, 32); err != nil {
		return s, errors.Join(ErrMalformed, err)
	}

	s.QName = words[0]
	s.Flag = uint16(flag)
	s.RName = words[2]
	s.Pos = uint32(pos)
	s.MapQ = uint8(mapq)
	if words[5] != "*" {
		s.Cigar = cigar.FromString(words[5])
	}
	s.RNext = words[6]
	s.PNext = uint32(pnext)
	s.TLen = int32(tlen)
	if words[9] != "*" {
		s.Seq = dna.StringToBases(words[9])
	}
	s.Qual = words[10]
	if len(words) == 12 {
		s.Extra = words[11]
	}
	return s, nil
}
