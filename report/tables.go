// Package report writes the per task methylation tables, VCF, and summaries.
package report

import (
	"fmt"
	"github.com/dasnellings/methylTools/call"
	"io"
	"strconv"
	"strings"
)

const (
	MethylationHeader     = "#SEQ_ID\tPOS\tSTRAND\tCONTEXT\tDEPTH\tALL_CALLS\tC_CALLS\tMETH_LEVEL\tBASES\tPVAL\tMETHYLATED\tBELOW_MIN_DEPTH\tQVAL\tBOUNDARY"
	MethylcytosinesHeader = "#SEQ_ID\tPOS\tSTRAND\tCONTEXT\tMETH_LEVEL\tDEPTH\tC_CALLS\tBASES\tPVAL\tQVAL\tBOUNDARY"
)

// formatFloat prints f in its shortest form, always with a decimal point or
// exponent so that integral values read as 1.0 rather than 1.
func formatFloat(f float64, format byte) string {
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

func formatLevel(f float64) string {
	return formatFloat(f, 'f')
}

func formatP(f float64) string {
	return formatFloat(f, 'g')
}

// Reported reports whether c belongs in the full methylation table.
func Reported(c call.MethylationCall, reportAll bool) bool {
	if c.Depth == 0 {
		return false
	}
	return c.PassesDepth || reportAll
}

// WriteMethylation writes the full table of one strand. calls must be sorted.
// Calls below the minimum depth are written only when reportAll is set.
func WriteMethylation(w io.Writer, calls []call.MethylationCall, reportAll bool) error {
	if _, err := fmt.Fprintln(w, MethylationHeader); err != nil {
		return err
	}
	var sb strings.Builder
	for i := range calls {
		if !Reported(calls[i], reportAll) {
			continue
		}
		sb.Reset()
		c := &calls[i]
		fmt.Fprintf(&sb, "%s\t%d\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\t%t\t%t\t%s\t%t\n",
			c.Contig, c.Pos, c.Strand, c.Context.Context, c.Depth, c.Total, c.Methylated,
			formatLevel(c.Level), c.Bases, formatP(c.PValue), c.Called, !c.PassesDepth, formatP(c.QValue), c.Context.Boundary)
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteMethylcytosines writes the called cytosines of both strands. calls must
// already be merged in coordinate order.
func WriteMethylcytosines(w io.Writer, calls []call.MethylationCall) error {
	if _, err := fmt.Fprintln(w, MethylcytosinesHeader); err != nil {
		return err
	}
	var sb strings.Builder
	for i := range calls {
		if !calls[i].Called || !calls[i].PassesDepth {
			continue
		}
		sb.Reset()
		c := &calls[i]
		fmt.Fprintf(&sb, "%s\t%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%t\n",
			c.Contig, c.Pos, c.Strand, c.Context.Context, formatLevel(c.Level), c.Depth, c.Methylated,
			c.Bases, formatP(c.PValue), formatP(c.QValue), c.Context.Boundary)
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
