// The errmdl package implements the sequencing error model used to turn a
// reference slice into a read. Errors are driven by the per-base Phred
// quality of an empirical quality profile; the type of each error event is
// drawn from an ErrorProfile and indels are extended geometrically.
package errmdl

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Maximum Phred quality that can be represented in FASTQ (Phred+33, '~')
const MaxQual = 93

// Mapping of Phred quality scores (0-93) to error probabilities: 10^(-Q/10)
var QualityMapping [MaxQual + 1]float64

func init() {
	for q := range QualityMapping {
		QualityMapping[q] = math.Pow(10, -float64(q)/10)
	}
}

var ErrInvalidProfile = errors.New("invalid error profile")

// Profile describes what happens when an error event occurs.
// Sub, Ins and Del are the probabilities of the event types, ExtIns and
// ExtDel the probabilities of extending an insertion or deletion by one
// more base.
type Profile struct {
	Sub    float64 `toml:"sub"`
	Ins    float64 `toml:"ins"`
	Del    float64 `toml:"del"`
	ExtIns float64 `toml:"ext-ins"`
	ExtDel float64 `toml:"ext-del"`
}

// Default rates, nanopore reads are dominated by substitutions
func DefaultProfile() Profile {
	return Profile{
		Sub:    0.7,
		Ins:    0.1,
		Del:    0.2,
		ExtIns: 0.3,
		ExtDel: 0.3,
	}
}

// Returns a copy of the profile with Sub, Ins and Del scaled to sum to 1.
func (p Profile) Normalize() (Profile, error) {
	for _, v := range []float64{p.Sub, p.Ins, p.Del} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return p, fmt.Errorf("%w: negative or non-finite event rate", ErrInvalidProfile)
		}
	}

	if p.ExtIns < 0 || p.ExtIns >= 1 || math.IsNaN(p.ExtIns) {
		return p, fmt.Errorf("%w: insertion extension %v not in [0,1)", ErrInvalidProfile, p.ExtIns)
	}

	if p.ExtDel < 0 || p.ExtDel >= 1 || math.IsNaN(p.ExtDel) {
		return p, fmt.Errorf("%w: deletion extension %v not in [0,1)", ErrInvalidProfile, p.ExtDel)
	}

	sum := p.Sub + p.Ins + p.Del
	if sum == 0 {
		return p, fmt.Errorf("%w: substitution, insertion and deletion rates are all zero", ErrInvalidProfile)
	}

	p.Sub /= sum
	p.Ins /= sum
	p.Del /= sum
	return p, nil
}

// Error event counters for one or more reads
type Events struct {
	Sub     int64 `toml:"substitutions"`
	Ins     int64 `toml:"inserted-bases"`
	Del     int64 `toml:"deleted-bases"`
	InsRuns int64 `toml:"insertion-runs"`
	DelRuns int64 `toml:"deletion-runs"`
}

func (e *Events) Add(o Events) {
	e.Sub += o.Sub
	e.Ins += o.Ins
	e.Del += o.Del
	e.InsRuns += o.InsRuns
	e.DelRuns += o.DelRuns
}

// Total number of bases affected by errors
func (e Events) Total() int64 {
	return e.Sub + e.Ins + e.Del
}

type ErrMdl interface {
	// Generate one "read" of the reference slice ref using the quality
	// profile qual (Phred values, not ASCII). All randomness comes from
	// rnd. Returns the read sequence, its qualities and the events that
	// were introduced.
	GenOne(ref, qual []byte, rnd *rand.Rand) (seq, rqual []byte, ev Events)
}
