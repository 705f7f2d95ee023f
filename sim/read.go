// The sim package generates simulated reads. Every read is built from its
// own random stream so the result depends only on the seed and the read
// index, never on how the work is spread over goroutines.
package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/shenwei356/go-logging"

	"readfaker/errmdl"
	"readfaker/reference"
)

var log = logging.MustGetLogger("readfaker")

var ErrInvalidID = errors.New("invalid read id")

type SimulatedRead struct {
	Index  int64
	ID     string
	Seq    []byte
	Qual   []byte
	Contig string
	Start  int
	Length int // length of the reference template
	Strand reference.Strand
	Events errmdl.Events
}

// Returns the random stream of read index. The index is mixed so streams of
// neighbouring reads are unrelated.
func Stream(seed uint64, index int64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, mix(uint64(index))))
}

// splitmix64 finalizer
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Builds the read id <contig>_<start>_<strand>_<index>
func ID(contig string, start int, strand reference.Strand, index int64) string {
	b := make([]byte, 0, len(contig)+32)
	b = append(b, contig...)
	b = append(b, '_')
	b = strconv.AppendInt(b, int64(start), 10)
	b = append(b, '_')
	b = append(b, strand.String()...)
	b = append(b, '_')
	b = strconv.AppendInt(b, index, 10)
	return string(b)
}

// Splits a read id built by ID. The contig name may contain underscores.
func ParseID(id string) (contig string, start int, strand reference.Strand, index int64, err error) {
	var fields [3]string

	s := id
	for i := 2; i >= 0; i-- {
		n := strings.LastIndexByte(s, '_')
		if n < 0 {
			return "", 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		fields[i] = s[n+1:]
		s = s[:n]
	}
	contig = s

	if start, err = strconv.Atoi(fields[0]); err != nil || start < 0 {
		return "", 0, 0, 0, fmt.Errorf("%w: bad start in %q", ErrInvalidID, id)
	}

	switch fields[1] {
	case "+":
		strand = reference.Forward
	case "-":
		strand = reference.Reverse
	default:
		return "", 0, 0, 0, fmt.Errorf("%w: bad strand in %q", ErrInvalidID, id)
	}

	if index, err = strconv.ParseInt(fields[2], 10, 64); err != nil || index < 0 {
		return "", 0, 0, 0, fmt.Errorf("%w: bad index in %q", ErrInvalidID, id)
	}

	return contig, start, strand, index, nil
}
