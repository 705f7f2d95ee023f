// The bgzf package writes BGZF files: a series of independent gzip members
// of at most 64 KiB each, terminated by an empty EOF block. Blocks are
// compressed in parallel and written in order.
package bgzf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/flate"
	"github.com/snksoft/crc"
)

const (
	// Largest compressed block
	MaxBlockSize = 0x10000

	// Uncompressed bytes per block. Leaves room for the header, the
	// footer and the deflate overhead of incompressible data.
	BlockDataSize = 0xff00

	headerSize = 18
	footerSize = 8
)

var ErrCompressionFailure = errors.New("bgzf compression failure")

// The empty block that marks the end of a BGZF file
var EOFBlock = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00,
	0x00, 0xff, 0x06, 0x00, 0x42, 0x43, 0x02, 0x00,
	0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

var crcTable = crc.NewTable(crc.CRC32)

// gzip header with the BC extra subfield, BSIZE is filled in later
var blockHeader = []byte{
	0x1f, 0x8b, // magic
	0x08,                   // deflate
	0x04,                   // FEXTRA
	0x00, 0x00, 0x00, 0x00, // mtime
	0x00,       // xfl
	0xff,       // os unknown
	0x06, 0x00, // xlen
	'B', 'C',
	0x02, 0x00, // subfield length
	0x00, 0x00, // BSIZE
}

// Compressor turns block data into BGZF blocks. The deflate state is reused
// between blocks. A Compressor is not safe for concurrent use.
type Compressor struct {
	buf bytes.Buffer
	fw  *flate.Writer
}

func NewCompressor(level int) (*Compressor, error) {
	c := new(Compressor)
	fw, err := flate.NewWriter(&c.buf, level)
	if err != nil {
		return nil, err
	}

	c.fw = fw
	return c, nil
}

// Appends the BGZF block holding data to dst and returns the result.
func (c *Compressor) Compress(dst, data []byte) ([]byte, error) {
	c.buf.Reset()
	c.buf.Write(blockHeader)
	c.fw.Reset(&c.buf)
	if _, err := c.fw.Write(data); err != nil {
		return dst, fmt.Errorf("%w: %v", ErrCompressionFailure, err)
	}

	if err := c.fw.Close(); err != nil {
		return dst, fmt.Errorf("%w: %v", ErrCompressionFailure, err)
	}

	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[0:4], uint32(crcTable.CalculateCRC(data)))
	binary.LittleEndian.PutUint32(footer[4:8], uint32(len(data)))
	c.buf.Write(footer[:])

	blk := c.buf.Bytes()
	if len(blk) > MaxBlockSize {
		return dst, fmt.Errorf("%w: %d bytes compressed to %d", ErrCompressionFailure, len(data), len(blk))
	}

	binary.LittleEndian.PutUint16(blk[16:18], uint16(len(blk)-1))
	return append(dst, blk...), nil
}

type blockCompressor interface {
	Compress(dst, data []byte) ([]byte, error)
}

// used by the Writer goroutines
var newBlockCompressor = func(level int) (blockCompressor, error) {
	return NewCompressor(level)
}

// Compresses a single block
func CompressBlock(dst, data []byte, level int) ([]byte, error) {
	c, err := NewCompressor(level)
	if err != nil {
		return dst, err
	}

	return c.Compress(dst, data)
}
