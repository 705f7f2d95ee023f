package errmdl

import (
	"math/rand/v2"

	"readfaker/dna"
)

const (
	evSub = iota
	evIns
	evDel
)

// PhredErrorModel introduces an error at a position with the probability
// given by the quality profile at that position.
type PhredErrorModel struct {
	prof Profile

	// cumulative thresholds for the event type draw
	subp   float64
	subins float64

	insOnly bool
}

func New(p Profile) (em *PhredErrorModel, err error) {
	p, err = p.Normalize()
	if err != nil {
		return nil, err
	}

	em = new(PhredErrorModel)
	em.prof = p
	em.subp = p.Sub
	em.subins = p.Sub + p.Ins
	em.insOnly = p.Ins == 1
	if p.Del == 0 {
		em.subins = 1
		if p.Ins == 0 {
			em.subp = 1
		}
	}
	return
}

func (em *PhredErrorModel) Profile() Profile {
	return em.prof
}

// Quality at position i. Positions past the end of the profile reuse the
// last value. An empty profile is treated as error free.
func qualAt(qual []byte, i int) byte {
	var q byte

	switch {
	case len(qual) == 0:
		q = MaxQual
	case i < len(qual):
		q = qual[i]
	default:
		q = qual[len(qual)-1]
	}

	if q > MaxQual {
		q = MaxQual
	}

	return q
}

func (em *PhredErrorModel) GenOne(ref, qual []byte, rnd *rand.Rand) (seq, rqual []byte, ev Events) {
	sz := len(ref) + len(ref)/8 + 1
	seq = make([]byte, 0, sz)
	rqual = make([]byte, 0, sz)

	// afterIns is set after an insertion run. With insertions as the only
	// event type a base that always errs would never be reached, so it is
	// kept as is.
	afterIns := false
	for i := 0; i < len(ref); {
		q := qualAt(qual, i)
		if rnd.Float64() > QualityMapping[q] || (afterIns && em.insOnly && QualityMapping[q] >= 1) {
			seq = append(seq, ref[i])
			rqual = append(rqual, q)
			i++
			afterIns = false
			continue
		}

		switch em.eventType(rnd) {
		case evSub:
			seq = append(seq, substitute(ref[i], rnd))
			rqual = append(rqual, q)
			ev.Sub++
			i++
			afterIns = false

		case evIns:
			ev.InsRuns++
			for {
				seq = append(seq, dna.Nt2Base(rnd.IntN(4)))
				rqual = append(rqual, q)
				ev.Ins++
				if rnd.Float64() >= em.prof.ExtIns {
					break
				}
			}
			afterIns = true

		case evDel:
			ev.DelRuns++
			for {
				i++
				ev.Del++
				if i >= len(ref) || rnd.Float64() >= em.prof.ExtDel {
					break
				}
			}
			afterIns = false
		}
	}

	return
}

func (em *PhredErrorModel) eventType(rnd *rand.Rand) int {
	u := rnd.Float64()
	switch {
	case u < em.subp:
		return evSub
	case u < em.subins:
		return evIns
	}

	return evDel
}

// Picks one of the three other bases. N becomes any of the four.
func substitute(b byte, rnd *rand.Rand) byte {
	nt := dna.Base2Nt(b)
	if nt < 0 {
		return dna.Nt2Base(rnd.IntN(4))
	}

	n := rnd.IntN(3)
	if n >= nt {
		n++
	}

	return dna.Nt2Base(n)
}
