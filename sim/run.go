package sim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"readfaker/bgzf"
	"readfaker/dna"
	"readfaker/errmdl"
)

type Settings struct {
	NumReads           int64
	Threads            int
	CompressionThreads int
	CompressionLevel   int
	BatchSize          int

	// Called from a single goroutine with the number of reads written
	// every time a batch is written.
	Progress func(n int)
}

type Stats struct {
	Reads  int64
	Bases  int64
	GC     int64
	Events errmdl.Events
	Blocks int64
}

func (s *Stats) add(o *Stats) {
	s.Reads += o.Reads
	s.Bases += o.Bases
	s.GC += o.GC
	s.Events.Add(o.Events)
}

type batch struct {
	idx   int64
	data  []byte
	stats Stats
}

// Generates the reads and writes them to w in index order. The output
// bytes depend only on the assembler's seed, the number of reads and the
// batch size.
func Run(ctx context.Context, a *Assembler, f Format, w io.Writer, s Settings) (*Stats, error) {
	var bw *bgzf.Writer
	var out io.Writer

	threads := max(s.Threads, 1)
	bsize := int64(max(s.BatchSize, 1))

	if f.Compressed() {
		var err error
		bw, err = bgzf.NewWriter(w, s.CompressionThreads, s.CompressionLevel)
		if err != nil {
			return nil, err
		}
		out = bw
	} else {
		out = bufio.NewWriterSize(w, 1<<20)
	}

	stats, err := generate(ctx, a, f, out, s.NumReads, bsize, threads, s.Progress)
	if bw != nil {
		cerr := bw.Close()
		if err == nil {
			err = cerr
		}
		stats.Blocks = bw.Blocks()
	} else if bufw, ok := out.(*bufio.Writer); ok && err == nil {
		err = bufw.Flush()
	}

	if err != nil {
		return nil, err
	}

	return stats, nil
}

func generate(ctx context.Context, a *Assembler, f Format, out io.Writer, nreads, bsize int64, threads int, progress func(int)) (*Stats, error) {
	stats := new(Stats)

	if hdr := f.Header(); len(hdr) > 0 {
		if _, err := out.Write(hdr); err != nil {
			return stats, err
		}
	}

	nbatches := (nreads + bsize - 1) / bsize
	if nbatches == 0 {
		return stats, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int64)
	results := make(chan *batch, 2*threads)

	// tokens for batches in flight, released once a batch is written
	sem := make(chan struct{}, 2*threads)

	g.Go(func() error {
		defer close(jobs)
		for i := int64(0); i < nbatches; i++ {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return nil
	})

	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for idx := range jobs {
				b, err := buildBatch(a, f, idx, bsize, nreads)
				if err != nil {
					return err
				}

				select {
				case results <- b:
				case <-gctx.Done():
					return gctx.Err()
				}
			}

			return nil
		})
	}

	// collector, writes the batches in order
	g.Go(func() error {
		next := int64(0)
		pending := make(map[int64]*batch)
		for next < nbatches {
			select {
			case b := <-results:
				pending[b.idx] = b
			case <-gctx.Done():
				return gctx.Err()
			}

			for {
				b, ok := pending[next]
				if !ok {
					break
				}

				delete(pending, next)
				if _, err := out.Write(b.data); err != nil {
					return fmt.Errorf("writing batch %d: %w", next, err)
				}

				stats.add(&b.stats)
				<-sem
				next++
				log.Debugf("batch %d written, %d reads", b.idx, b.stats.Reads)
				if progress != nil {
					progress(int(b.stats.Reads))
				}
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}

	return stats, nil
}

func buildBatch(a *Assembler, f Format, idx, bsize, nreads int64) (*batch, error) {
	start := idx * bsize
	end := min(start+bsize, nreads)

	b := &batch{idx: idx}
	for i := start; i < end; i++ {
		r, err := a.Assemble(i)
		if err != nil {
			return nil, err
		}

		b.data, err = f.Append(b.data, r)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", r.ID, err)
		}

		b.stats.Reads++
		b.stats.Bases += int64(len(r.Seq))
		b.stats.GC += int64(dna.GCcount(r.Seq))
		b.stats.Events.Add(r.Events)
	}

	return b, nil
}

// Creates the output file and runs the simulation. The format is picked
// from the file name. The output is removed if the run fails.
func RunFile(ctx context.Context, a *Assembler, fname string, hdr HeaderInfo, s Settings) (*Stats, error) {
	f, err := FormatFor(fname, hdr)
	if err != nil {
		return nil, err
	}

	fh, err := os.Create(fname)
	if err != nil {
		return nil, err
	}

	log.Infof("writing %d reads to %s (%s)", s.NumReads, fname, f.Name())
	stats, err := Run(ctx, a, f, fh, s)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		if rerr := os.Remove(fname); rerr != nil {
			log.Warningf("can't remove incomplete output %s: %v", fname, rerr)
		}
		return nil, err
	}

	return stats, nil
}
