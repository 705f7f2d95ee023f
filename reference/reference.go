// The reference package holds the reference contigs reads are sampled from
// and picks read positions uniformly over all valid start positions.
package reference

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"readfaker/dna"
	"readfaker/io/fasta"
)

var ErrInsufficientLength = errors.New("no contig long enough")

type Strand int8

const (
	Forward Strand = iota
	Reverse
)

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}

	return "+"
}

type Contig struct {
	Name string
	Seq  []byte
}

func (c *Contig) Len() int {
	return len(c.Seq)
}

// Store is immutable after creation and safe for concurrent use.
type Store struct {
	contigs []*Contig // sorted by length, longest first
	order   []*Contig // as loaded
	cumlen  []int64   // cumlen[k] is the total length of contigs[:k]
	total   int64
}

// Creates a store from the contigs. Empty contigs are ignored.
func New(contigs []*Contig) (*Store, error) {
	s := new(Store)
	for _, c := range contigs {
		if c.Len() == 0 {
			continue
		}

		s.order = append(s.order, c)
		s.total += int64(c.Len())
	}

	if len(s.order) == 0 {
		return nil, fmt.Errorf("%w: reference has no sequence", fasta.ErrMalformedReference)
	}

	s.contigs = make([]*Contig, len(s.order))
	copy(s.contigs, s.order)
	sort.SliceStable(s.contigs, func(i, j int) bool {
		return s.contigs[i].Len() > s.contigs[j].Len()
	})

	s.cumlen = make([]int64, len(s.contigs)+1)
	for i, c := range s.contigs {
		s.cumlen[i+1] = s.cumlen[i] + int64(c.Len())
	}

	return s, nil
}

// Loads the reference from a FASTA file
func Load(fname string) (*Store, error) {
	recs, err := fasta.Read(fname)
	if err != nil {
		return nil, err
	}

	contigs := make([]*Contig, len(recs))
	for i := range recs {
		contigs[i] = &Contig{Name: recs[i].Name, Seq: recs[i].Seq}
	}

	return New(contigs)
}

// Contigs in the order they were loaded
func (s *Store) Contigs() []*Contig {
	return s.order
}

// Total number of bases
func (s *Store) Len() int64 {
	return s.total
}

func (s *Store) MaxLen() int {
	return s.contigs[0].Len()
}

// Picks a contig and a start position so that every (contig, start) pair
// that fits a read of the given length is equally likely, and a strand.
func (s *Store) SamplePosition(rnd *rand.Rand, length int) (c *Contig, start int, strand Strand, err error) {
	if length <= 0 || length > s.MaxLen() {
		return nil, 0, Forward, fmt.Errorf("%w: read length %d, longest contig %d", ErrInsufficientLength, length, s.MaxLen())
	}

	// contigs that can hold the read form a prefix of the sorted list
	n := sort.Search(len(s.contigs), func(i int) bool { return s.contigs[i].Len() < length })

	// number of valid start positions in the first k contigs
	starts := func(k int) int64 {
		return s.cumlen[k] - int64(k)*int64(length-1)
	}

	pos := rnd.Int64N(starts(n))
	k := sort.Search(n, func(k int) bool { return starts(k+1) > pos })
	c = s.contigs[k]
	start = int(pos - starts(k))

	if rnd.IntN(2) == 1 {
		strand = Reverse
	}

	return
}

// Returns the read template for the position: the reference slice for the
// forward strand, its reverse complement for the reverse strand.
// The returned slice is a copy when reverse complemented and shared with
// the store otherwise.
func (c *Contig) Slice(start, length int, strand Strand) []byte {
	s := c.Seq[start : start+length]
	if strand == Reverse {
		return dna.RevComp(nil, s)
	}

	return s
}
