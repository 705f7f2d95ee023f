package bgzf

import (
	"errors"
	"io"
	"sync"
)

var ErrClosed = errors.New("bgzf writer closed")

type block struct {
	idx  int64
	data []byte
	out  []byte
	err  error
}

// Writer splits the byte stream into blocks of BlockDataSize bytes. The
// block boundaries depend only on the bytes written, not on the number of
// compression goroutines, so the output is always the same for the same
// input.
type Writer struct {
	w      io.Writer
	buf    []byte
	next   int64
	closed bool

	jobs  chan *block
	done  chan *block
	slots chan struct{} // bounds the blocks in flight
	wg    sync.WaitGroup
	fin   chan struct{}
	pool  sync.Pool

	mu      sync.Mutex
	err     error
	written int64
}

// Creates a writer that compresses with the given number of goroutines and
// deflate level.
func NewWriter(w io.Writer, threads, level int) (*Writer, error) {
	if threads < 1 {
		threads = 1
	}

	cs := make([]blockCompressor, threads)
	for i := range cs {
		c, err := newBlockCompressor(level)
		if err != nil {
			return nil, err
		}
		cs[i] = c
	}

	bw := &Writer{
		w:     w,
		jobs:  make(chan *block, 2*threads),
		done:  make(chan *block, threads),
		slots: make(chan struct{}, 4*threads),
		fin:   make(chan struct{}),
	}
	bw.pool.New = func() any {
		return &block{data: make([]byte, 0, BlockDataSize)}
	}
	bw.buf = bw.getBlock().data

	for _, c := range cs {
		bw.wg.Add(1)
		go bw.compress(c)
	}

	go bw.collect()
	return bw, nil
}

func (bw *Writer) getBlock() *block {
	b := bw.pool.Get().(*block)
	b.data = b.data[:0]
	b.out = b.out[:0]
	b.err = nil
	return b
}

func (bw *Writer) compress(c blockCompressor) {
	defer bw.wg.Done()

	for b := range bw.jobs {
		b.out, b.err = c.Compress(b.out[:0], b.data)
		bw.done <- b
	}
}

// Writes the compressed blocks in index order
func (bw *Writer) collect() {
	var next int64

	pending := make(map[int64]*block)
	for b := range bw.done {
		pending[b.idx] = b
		for {
			nb, ok := pending[next]
			if !ok {
				break
			}

			delete(pending, next)
			next++
			bw.emit(nb)
			bw.pool.Put(nb)
			<-bw.slots
		}
	}

	close(bw.fin)
}

func (bw *Writer) emit(b *block) {
	if bw.Err() != nil {
		return
	}

	if b.err != nil {
		bw.setErr(b.err)
		return
	}

	if _, err := bw.w.Write(b.out); err != nil {
		bw.setErr(err)
		return
	}

	bw.mu.Lock()
	bw.written++
	bw.mu.Unlock()
}

func (bw *Writer) setErr(err error) {
	bw.mu.Lock()
	if bw.err == nil {
		bw.err = err
	}
	bw.mu.Unlock()
}

// Returns the first error that occurred while compressing or writing
func (bw *Writer) Err() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.err
}

// Number of data blocks written so far (the EOF block is not counted)
func (bw *Writer) Blocks() int64 {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.written
}

func (bw *Writer) submit() {
	b := bw.getBlock()
	b.data, bw.buf = bw.buf, b.data
	b.idx = bw.next
	bw.next++

	bw.slots <- struct{}{}
	bw.jobs <- b
}

func (bw *Writer) Write(p []byte) (n int, err error) {
	if bw.closed {
		return 0, ErrClosed
	}

	if err := bw.Err(); err != nil {
		return 0, err
	}

	for len(p) > 0 {
		m := copy(bw.buf[len(bw.buf):BlockDataSize], p)
		bw.buf = bw.buf[:len(bw.buf)+m]
		p = p[m:]
		n += m

		if len(bw.buf) == BlockDataSize {
			bw.submit()
		}
	}

	return n, nil
}

// Flushes the last partial block, waits for all blocks to be written and
// appends the EOF block. The underlying writer is not closed.
func (bw *Writer) Close() error {
	if bw.closed {
		return bw.Err()
	}
	bw.closed = true

	if len(bw.buf) > 0 {
		bw.submit()
	}

	close(bw.jobs)
	bw.wg.Wait()
	close(bw.done)
	<-bw.fin

	if err := bw.Err(); err != nil {
		return err
	}

	if _, err := bw.w.Write(EOFBlock); err != nil {
		bw.setErr(err)
		return err
	}

	return nil
}
