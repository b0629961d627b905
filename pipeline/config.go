package pipeline

import (
	"fmt"
	"github.com/dasnellings/methylTools/call"
	"github.com/dasnellings/methylTools/clonal"
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/errmodel"
	"github.com/dasnellings/methylTools/failure"
	"github.com/dasnellings/methylTools/reads"
	"github.com/dasnellings/methylTools/reference"
	"github.com/dasnellings/methylTools/strand"
	"gopkg.in/yaml.v2"
	"math"
	"os"
)

// Task names one sample aligned against one reference. Watson and Crick are
// the alignments against the two converted strands of ReferenceFasta.
type Task struct {
	Sample         string `yaml:"sample"`
	Reference      string `yaml:"reference"`
	ReferenceFasta string `yaml:"fasta"`
	Watson         string `yaml:"watson"`
	Crick          string `yaml:"crick"`
}

// ReferenceName is Reference, or the fasta file name when Reference is empty.
func (t Task) ReferenceName() string {
	if t.Reference != "" {
		return t.Reference
	}
	return reference.Name(t.ReferenceFasta)
}

func (t Task) alignments(s strand.Strand) string {
	if s == strand.Crick {
		return t.Crick
	}
	return t.Watson
}

// FixedRates are user supplied error rates for each strand.
type FixedRates struct {
	Watson float64 `yaml:"watson"`
	Crick  float64 `yaml:"crick"`
}

// Config holds every setting of a run. Exactly one of the control (regions
// or genome label) and FixedErrorRates must be set.
type Config struct {
	Trim               bool        `yaml:"trim"`
	TrimLength         int         `yaml:"trimLength"`
	Threads            int         `yaml:"threads"`
	RemoveAmbiguous    bool        `yaml:"removeAmbiguous"`
	RemoveBadMappings  bool        `yaml:"removeBadMappings"`
	MaxMismatches      int         `yaml:"maxMismatches"`
	RemoveClonal       bool        `yaml:"removeClonal"`
	ClonalPolicy       string      `yaml:"clonalPolicy"`
	ReportAllPositions bool        `yaml:"reportAllPositions"`
	MinDepth           int         `yaml:"minDepth"`
	MinMapQ            int         `yaml:"minMapQ"`
	Significance       float64     `yaml:"significance"`
	Correction         string      `yaml:"correction"`
	ControlRegions     []string    `yaml:"controlRegions"`
	ControlGenomeLabel string      `yaml:"controlGenomeLabel"`
	MinControlDepth    int         `yaml:"minControlDepth"`
	FixedErrorRates    *FixedRates `yaml:"fixedErrorRates"`
	BoundaryPolicy     string      `yaml:"boundaryPolicy"`
	ExcludeRegions     []string    `yaml:"excludeRegions"`
	Regions            []string    `yaml:"regions"`
	Plot               bool        `yaml:"plot"`
	OutputDir          string      `yaml:"outputDir"`
	Verbose            int         `yaml:"verbose"`
	Tasks              []Task      `yaml:"tasks"`
}

// DefaultConfig returns a Config with every default filled in and no tasks.
func DefaultConfig() Config {
	return Config{
		TrimLength:      4,
		Threads:         1,
		MaxMismatches:   2,
		ClonalPolicy:    clonal.First.String(),
		MinDepth:        1,
		Significance:    0.01,
		Correction:      call.None.String(),
		MinControlDepth: 1,
		BoundaryPolicy:  seqctx.BoundaryCHH.String(),
		OutputDir:       ".",
	}
}

// LoadConfig decodes a YAML run file on top of DefaultConfig.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(filename)
	if err != nil {
		return cfg, failure.New(failure.InvalidConfig, "opening run file", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	decoder.SetStrict(true)
	if err = decoder.Decode(&cfg); err != nil {
		return cfg, failure.New(failure.InvalidConfig, "decoding "+filename, err)
	}
	return cfg, nil
}

// settings are the parsed forms of the string and numeric options of a Config.
type settings struct {
	readOpt  reads.Options
	clonal   clonal.Policy
	boundary seqctx.BoundaryPolicy
	params   call.Params
	fixed    *errmodel.Fixed
}

// Validate reports the first problem with c as a failure.InvalidConfig.
func (c Config) Validate() error {
	_, err := c.parse()
	return err
}

func (c Config) usesControl() bool {
	return len(c.ControlRegions) > 0 || c.ControlGenomeLabel != ""
}

func invalid(format string, args ...any) error {
	return failure.Newf(failure.InvalidConfig, "validating config", format, args...)
}

func (c Config) parse() (s settings, err error) {
	if math.IsNaN(c.Significance) || c.Significance <= 0 || c.Significance > 1 {
		return s, invalid("significance must be in (0,1], found %g", c.Significance)
	}
	if c.Threads < 1 {
		return s, invalid("threads must be at least 1, found %d", c.Threads)
	}
	if c.MinDepth < 1 {
		return s, invalid("minDepth must be at least 1, found %d", c.MinDepth)
	}
	if c.MinMapQ < 0 || c.MinMapQ > 255 {
		return s, invalid("minMapQ must be in [0,255], found %d", c.MinMapQ)
	}
	if c.Trim && c.TrimLength < 0 {
		return s, invalid("trimLength must not be negative, found %d", c.TrimLength)
	}
	if c.MaxMismatches < 0 {
		return s, invalid("maxMismatches must not be negative, found %d", c.MaxMismatches)
	}

	switch {
	case c.usesControl() && c.FixedErrorRates != nil:
		return s, invalid("control regions and fixed error rates are mutually exclusive")
	case !c.usesControl() && c.FixedErrorRates == nil:
		return s, invalid("either control regions, a control genome label, or fixed error rates are required")
	case c.FixedErrorRates != nil:
		s.fixed = &errmodel.Fixed{Watson: c.FixedErrorRates.Watson, Crick: c.FixedErrorRates.Crick}
		if err = s.fixed.Validate(); err != nil {
			return s, failure.New(failure.InvalidConfig, "validating config", err)
		}
	}

	if s.clonal, err = clonal.ParsePolicy(c.ClonalPolicy); err != nil {
		return s, failure.New(failure.InvalidConfig, "validating config", err)
	}
	if s.boundary, err = seqctx.ParseBoundaryPolicy(c.BoundaryPolicy); err != nil {
		return s, failure.New(failure.InvalidConfig, "validating config", err)
	}
	s.params = call.Params{MinDepth: c.MinDepth, Significance: c.Significance}
	if s.params.Correction, err = call.ParseCorrection(c.Correction); err != nil {
		return s, failure.New(failure.InvalidConfig, "validating config", err)
	}
	s.readOpt = reads.Options{
		MinMapQ:    uint8(c.MinMapQ),
		Trim:       c.Trim,
		TrimLength: c.TrimLength,
		Verbose:    c.Verbose,
	}

	if len(c.Tasks) == 0 {
		return s, invalid("no tasks to run")
	}
	seen := make(map[string]bool, len(c.Tasks))
	var key string
	for i, t := range c.Tasks {
		switch {
		case t.Sample == "":
			return s, invalid("task %d has no sample name", i+1)
		case t.ReferenceFasta == "":
			return s, invalid("task %s has no reference fasta", t.Sample)
		case t.Watson == "" || t.Crick == "":
			return s, invalid("task %s needs both WATSON and CRICK alignments", t.Sample)
		}
		key = fmt.Sprintf("%s.%s", t.Sample, t.ReferenceName())
		if seen[key] {
			return s, invalid("task %s is listed more than once", key)
		}
		seen[key] = true
	}
	return s, nil
}
