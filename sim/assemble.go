package sim

import (
	"errors"
	"fmt"

	"readfaker/errmdl"
	"readfaker/model"
	"readfaker/reference"
)

var ErrReferenceTooShort = fmt.Errorf("reference too short for the sampled read lengths: %w", reference.ErrInsufficientLength)

// Assembler builds reads: it draws a template length and quality profile
// from the model, a position on the reference, and runs the error model
// over the template. It is safe for concurrent use.
type Assembler struct {
	mdl         *model.Model
	ref         *reference.Store
	em          errmdl.ErrMdl
	seed        uint64
	maxAttempts int
}

func NewAssembler(mdl *model.Model, ref *reference.Store, em errmdl.ErrMdl, seed uint64, maxAttempts int) (*Assembler, error) {
	if mdl == nil || len(mdl.Bins) == 0 {
		return nil, model.ErrEmptyModel
	}

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	minLen, _ := mdl.LengthRange()
	if minLen > ref.MaxLen() {
		return nil, fmt.Errorf("%w: shortest read %d, longest contig %d", ErrReferenceTooShort, minLen, ref.MaxLen())
	}

	return &Assembler{
		mdl:         mdl,
		ref:         ref,
		em:          em,
		seed:        seed,
		maxAttempts: maxAttempts,
	}, nil
}

// Builds read number index. Templates that don't fit on any contig are
// redrawn up to the maximum number of attempts.
func (a *Assembler) Assemble(index int64) (*SimulatedRead, error) {
	rnd := Stream(a.seed, index)
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		length, qual := a.mdl.Sample(rnd)
		c, start, strand, err := a.ref.SamplePosition(rnd, length)
		if errors.Is(err, reference.ErrInsufficientLength) {
			continue
		} else if err != nil {
			return nil, err
		}

		tmpl := c.Slice(start, length, strand)
		seq, rqual, ev := a.em.GenOne(tmpl, qual, rnd)
		return &SimulatedRead{
			Index:  index,
			ID:     ID(c.Name, start, strand, index),
			Seq:    seq,
			Qual:   rqual,
			Contig: c.Name,
			Start:  start,
			Length: length,
			Strand: strand,
			Events: ev,
		}, nil
	}

	return nil, fmt.Errorf("%w: read %d: no fitting position in %d attempts", ErrReferenceTooShort, index, a.maxAttempts)
}
