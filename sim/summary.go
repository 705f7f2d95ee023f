package sim

import (
	"encoding/binary"
	"os"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"readfaker/errmdl"
)

var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("readfaker"))

// Returns the id of a run with the given seed. Runs with the same seed have
// the same id.
func RunID(seed uint64) uuid.UUID {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seed)
	return uuid.NewSHA1(runNamespace, b[:])
}

type Summary struct {
	RunID      string        `toml:"run-id"`
	Seed       uint64        `toml:"seed"`
	Output     string        `toml:"output"`
	Reads      int64         `toml:"reads"`
	Bases      int64         `toml:"bases"`
	MeanLength float64       `toml:"mean-length"`
	GCContent  float64       `toml:"gc-content"`
	ErrorRate  float64       `toml:"error-rate" comment:"Bases affected by an error event per output base"`
	Blocks     int64         `toml:"bgzf-blocks"`
	Events     errmdl.Events `toml:"errors"`
}

func NewSummary(seed uint64, output string, st *Stats) *Summary {
	s := &Summary{
		RunID:  RunID(seed).String(),
		Seed:   seed,
		Output: output,
		Reads:  st.Reads,
		Bases:  st.Bases,
		Blocks: st.Blocks,
		Events: st.Events,
	}

	if st.Reads > 0 {
		s.MeanLength = float64(st.Bases) / float64(st.Reads)
	}

	if st.Bases > 0 {
		s.ErrorRate = float64(st.Events.Total()) / float64(st.Bases)
		s.GCContent = float64(st.GC) / float64(st.Bases)
	}

	return s
}

func (s *Summary) WriteFile(fname string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(fname, data, 0644)
}

func ReadSummary(fname string) (*Summary, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	s := new(Summary)
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}
