package fai

import (
	"bufio"
	"fmt"
	"github.com/vertgenlab/gonomics/fileio"
	"io"
	"os"
	"strconv"
	"strings"
)

// Index stores the byte offset for each fasta sequencing allowing for efficient random access.
type Index struct {
	chroms  []chrOffset    // for search by index
	nameMap map[string]int // maps chr name to index in chroms
}

// String method for Index enables easy writing with the fmt package.
func (idx Index) String() string {
	answer := new(strings.Builder)
	for i := range idx.chroms {
		answer.WriteString(idx.chroms[i].String())
		answer.WriteByte('\n')
	}
	return answer.String()
}

// Length returns the number of bases in chr.
func (idx Index) Length(chr string) (int, bool) {
	i, found := idx.nameMap[chr]
	if !found {
		return 0, false
	}
	return idx.chroms[i].len, true
}

// Names returns the sequence names in file order.
func (idx Index) Names() []string {
	ans := make([]string, len(idx.chroms))
	for i := range idx.chroms {
		ans[i] = idx.chroms[i].name
	}
	return ans
}

// chrOffset has offset information about each reference. Equivalent to one line of a fai file.
type chrOffset struct {
	name         string // Name of this reference sequence
	len          int    // Total length of this reference sequence, in bases
	offset       int    // Offset within the FASTA file of this sequence's first base
	basesPerLine int    // The number of bases on each line
	bytesPerLine int    // The number of bytes in each line, including the newline
}

// String method for chrOffset enables easy writing with the fmt package.
func (c chrOffset) String() string {
	return fmt.Sprintf("%s\t%d\t%d\t%d\t%d", c.name, c.len, c.offset, c.basesPerLine, c.bytesPerLine)
}

// ReadIndex reads a fai index file to an Index struct that can be used for random access.
func ReadIndex(filename string) (Index, error) {
	var answer Index
	if _, err := os.Stat(filename); err != nil {
		return answer, err
	}
	file := fileio.EasyOpen(filename)
	var curr chrOffset
	var line string
	var col []string
	var done bool
	var err error
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		col = strings.Split(line, "\t")
		if len(col) != 5 {
			file.Close()
			return answer, fmt.Errorf("malformed index file: %s\nerror on line:\n%s", filename, line)
		}

		curr.name = col[0]
		if curr.len, err = strconv.Atoi(col[1]); err != nil {
			file.Close()
			return answer, err
		}
		if curr.offset, err = strconv.Atoi(col[2]); err != nil {
			file.Close()
			return answer, err
		}
		if curr.basesPerLine, err = strconv.Atoi(col[3]); err != nil {
			file.Close()
			return answer, err
		}
		if curr.bytesPerLine, err = strconv.Atoi(col[4]); err != nil {
			file.Close()
			return answer, err
		}

		answer.chroms = append(answer.chroms, curr)
	}

	if err = file.Close(); err != nil {
		return answer, err
	}

	answer.buildNameMap()
	return answer, nil
}

// New builds an Index holding only sequence names and lengths, for references
// that were loaded into memory rather than read through an index file.
func New(names []string, lengths []int) Index {
	var answer Index
	answer.chroms = make([]chrOffset, len(names))
	for i := range names {
		answer.chroms[i] = chrOffset{name: names[i], len: lengths[i]}
	}
	answer.buildNameMap()
	return answer
}

func (idx *Index) buildNameMap() {
	idx.nameMap = make(map[string]int, len(idx.chroms))
	for i := range idx.chroms {
		idx.nameMap[idx.chroms[i].name] = i
	}
}

// Build scans an uncompressed fasta file and computes its index.
// Every sequence line except the last of a record must have the same length.
func Build(fastaFile string) (Index, error) {
	var answer Index
	f, err := os.Open(fastaFile)
	if err != nil {
		return answer, err
	}
	defer f.Close()
	answer, err = buildFrom(f)
	if err != nil {
		return answer, fmt.Errorf("%s: %w", fastaFile, err)
	}
	return answer, nil
}

func buildFrom(r io.Reader) (Index, error) {
	var answer Index
	var curr *chrOffset
	var offset, lineNum int
	var lastShort bool
	reader := bufio.NewReader(r)
	for {
		raw, err := reader.ReadString('\n')
		if len(raw) > 0 {
			lineNum++
			lineBytes := len(raw)
			line := strings.TrimRight(raw, "\r\n")
			switch {
			case strings.HasPrefix(line, ">"):
				answer.chroms = append(answer.chroms, chrOffset{name: strings.Fields(line[1:] + " ")[0]})
				curr = &answer.chroms[len(answer.chroms)-1]
				curr.offset = offset + lineBytes
				lastShort = false

			case curr == nil:
				if strings.TrimSpace(line) != "" {
					return answer, fmt.Errorf("sequence before first header on line %d", lineNum)
				}

			case len(line) == 0:
				lastShort = true

			default:
				if curr.basesPerLine == 0 {
					curr.basesPerLine = len(line)
					curr.bytesPerLine = lineBytes
				} else if lastShort || len(line) > curr.basesPerLine {
					return answer, fmt.Errorf("inconsistent line length for %s on line %d", curr.name, lineNum)
				}
				if len(line) < curr.basesPerLine {
					lastShort = true
				}
				curr.len += len(line)
			}
			offset += lineBytes
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return answer, err
		}
	}
	answer.buildNameMap()
	return answer, nil
}

// Write saves the index in samtools faidx format.
func (idx Index) Write(filename string) error {
	out := fileio.EasyCreate(filename)
	if _, err := io.WriteString(out, idx.String()); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// VcfHeader returns the ##contig lines describing every sequence in the index.
func (idx Index) VcfHeader() string {
	ans := new(strings.Builder)
	for i := range idx.chroms {
		ans.WriteString(fmt.Sprintf("##contig=<ID=%s,length=%d>\n", idx.chroms[i].name, idx.chroms[i].len))
	}
	return ans.String()
}
