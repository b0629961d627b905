package report

import (
	"fmt"
	"github.com/dasnellings/methylTools/call"
	"github.com/dasnellings/methylTools/fai"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/vcf"
	"io"
	"math"
	"strings"
)

// maxQual caps the phred scaled quality of calls whose p-value underflows.
const maxQual = 1000

func makeVcfHeader(sample, reference string, idx fai.Index) vcf.Header {
	var header vcf.Header
	header.Text = append(header.Text, "##fileformat=VCFv4.2")
	header.Text = append(header.Text, "##source=methyltools")
	header.Text = append(header.Text, fmt.Sprintf("##reference=%s", reference))
	if contigs := strings.TrimSuffix(idx.VcfHeader(), "\n"); contigs != "" {
		header.Text = append(header.Text, contigs)
	}
	header.Text = append(header.Text, "##INFO=<ID=CX,Number=1,Type=String,Description=\"Sequence context of the cytosine (CG, CHG, CHH)\">")
	header.Text = append(header.Text, "##INFO=<ID=ST,Number=1,Type=String,Description=\"Strand of the cytosine (WATSON or CRICK)\">")
	header.Text = append(header.Text, "##INFO=<ID=ML,Number=1,Type=Float,Description=\"Methylation level\">")
	header.Text = append(header.Text, "##INFO=<ID=PV,Number=1,Type=Float,Description=\"Binomial p-value against the bisulfite error rate\">")
	header.Text = append(header.Text, "##INFO=<ID=BD,Number=0,Type=Flag,Description=\"Context window truncated by a contig end\">")
	header.Text = append(header.Text, "##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype: 0 methylated (unconverted), 1 unmethylated (converted)\">")
	header.Text = append(header.Text, "##FORMAT=<ID=DP,Number=1,Type=Integer,Description=\"Informative read depth\">")
	header.Text = append(header.Text, "##FORMAT=<ID=MC,Number=1,Type=Integer,Description=\"Reads supporting methylation\">")
	header.Text = append(header.Text, "##FORMAT=<ID=ML,Number=1,Type=Float,Description=\"Methylation level\">")
	header.Text = append(header.Text, fmt.Sprintf("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t%s", sample))
	return header
}

func phred(p float64) float64 {
	if p <= 0 {
		return maxQual
	}
	q := -10 * math.Log10(p)
	if q > maxQual {
		q = maxQual
	}
	if q < 0 {
		q = 0
	}
	return math.Round(q*100) / 100
}

// ToVcf converts a called cytosine to a haploid VCF record. REF is the
// reference base of the cytosine on the forward strand and ALT is the base an
// unmethylated cytosine is read as.
func ToVcf(c call.MethylationCall) vcf.Vcf {
	var v vcf.Vcf
	v.Chr = c.Contig
	v.Pos = c.Pos
	v.Id = "."
	v.Ref = string(dna.BaseToRune(c.Strand.TargetBase()))
	v.Alt = []string{string(dna.BaseToRune(c.Strand.ConvertedBase()))}
	v.Qual = phred(c.PValue)
	v.Filter = "PASS"
	v.Info = fmt.Sprintf("CX=%s;ST=%s;ML=%s;PV=%s", c.Context.Context, c.Strand, formatLevel(c.Level), formatP(c.PValue))
	if c.Context.Boundary {
		v.Info += ";BD"
	}
	v.Format = []string{"GT", "DP", "MC", "ML"}

	v.Samples = make([]vcf.Sample, 1)
	if c.Level >= 0.5 {
		v.Samples[0].Alleles = []int16{0}
	} else {
		v.Samples[0].Alleles = []int16{1}
	}
	v.Samples[0].FormatData = []string{"", fmt.Sprint(c.Depth), fmt.Sprint(c.Methylated), formatLevel(c.Level)}
	return v
}

// WriteVcf writes the called cytosines as VCF. calls must already be merged in
// coordinate order.
func WriteVcf(w io.Writer, sample, reference string, idx fai.Index, calls []call.MethylationCall) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writing vcf: %v", r)
		}
	}()
	vcf.NewWriteHeader(w, makeVcfHeader(sample, reference, idx))
	for i := range calls {
		if !calls[i].Called || !calls[i].PassesDepth {
			continue
		}
		vcf.WriteVcf(w, ToVcf(calls[i]))
	}
	return nil
}
