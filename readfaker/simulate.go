package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"readfaker/config"
	"readfaker/errmdl"
	"readfaker/io/input"
	"readfaker/model"
	"readfaker/reference"
	"readfaker/sim"
)

// flags that can override a setting of the configuration file
type override struct {
	name  string
	apply func(dst, src *config.Config)
}

var overrides = []override{
	{"reference", func(d, s *config.Config) { d.Reference = s.Reference }},
	{"input", func(d, s *config.Config) { d.Input = s.Input }},
	{"output", func(d, s *config.Config) { d.Output = s.Output }},
	{"model", func(d, s *config.Config) { d.ModelFile = s.ModelFile }},
	{"save-model", func(d, s *config.Config) { d.SaveModel = s.SaveModel }},
	{"summary", func(d, s *config.Config) { d.Summary = s.Summary }},
	{"num-reads", func(d, s *config.Config) { d.NumReads = s.NumReads }},
	{"threads", func(d, s *config.Config) { d.Threads = s.Threads }},
	{"compression-threads", func(d, s *config.Config) { d.CompressionThreads = s.CompressionThreads }},
	{"compression-level", func(d, s *config.Config) { d.CompressionLevel = s.CompressionLevel }},
	{"batch-size", func(d, s *config.Config) { d.BatchSize = s.BatchSize }},
	{"max-attempts", func(d, s *config.Config) { d.MaxAttempts = s.MaxAttempts }},
	{"sub", func(d, s *config.Config) { d.Errors.Sub = s.Errors.Sub }},
	{"ins", func(d, s *config.Config) { d.Errors.Ins = s.Errors.Ins }},
	{"del", func(d, s *config.Config) { d.Errors.Del = s.Errors.Del }},
	{"ext-ins", func(d, s *config.Config) { d.Errors.ExtIns = s.Errors.ExtIns }},
	{"ext-del", func(d, s *config.Config) { d.Errors.ExtDel = s.Errors.ExtDel }},
	{"bin-width", func(d, s *config.Config) { d.Model.BinWidth = s.Model.BinWidth }},
	{"max-binned-length", func(d, s *config.Config) { d.Model.MaxBinnedLength = s.Model.MaxBinnedLength }},
	{"pool-capacity", func(d, s *config.Config) { d.Model.PoolCapacity = s.Model.PoolCapacity }},
}

func addModelFlags(fs *pflag.FlagSet, fc *config.Config) {
	fs.IntVar(&fc.Model.BinWidth, "bin-width", fc.Model.BinWidth, "Width of the read length bins")
	fs.IntVar(&fc.Model.MaxBinnedLength, "max-binned-length", fc.Model.MaxBinnedLength, "Reads at least this long share one bin")
	fs.IntVar(&fc.Model.PoolCapacity, "pool-capacity", fc.Model.PoolCapacity, "Quality profiles kept per bin (0 keeps all)")
}

func simulateCommand() *cobra.Command {
	var cfgFile string
	var seed uint64
	var verbose, quiet, progress bool

	fc := config.Default()
	cmd := &cobra.Command{
		Use:   "readfaker",
		Short: "Simulate nanopore reads with realistic length and quality profiles",
		Long: `readfaker: nanopore read simulator

Read lengths and per-base qualities are sampled from an empirical model of
a real read set (FASTQ or BAM). Reads are taken from random positions of the
reference and errors are introduced with the probability given by the
quality of each base. The output format follows the file name: .fastq/.fq,
.fastq.gz/.fq.gz (BGZF) or .bam.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose, quiet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if cfgFile != "" {
				var err error
				if cfg, err = config.Load(cfgFile); err != nil {
					return err
				}
			}

			for _, o := range overrides {
				if cmd.Flags().Changed(o.name) {
					o.apply(cfg, fc)
				}
			}

			if cmd.Flags().Changed("seed") {
				cfg.Seed = &seed
			}

			return simulate(cfg, progress)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfgFile, "config", "c", "", "Configuration file (TOML), flags override its settings")
	fs.StringVarP(&fc.Reference, "reference", "r", "", "Reference sequences (FASTA) to sample reads from")
	fs.StringVarP(&fc.Input, "input", "i", "", "Reads (FASTQ or BAM) to build the length/quality model from")
	fs.StringVarP(&fc.Output, "output", "o", "", "Output file for the simulated reads")
	fs.StringVarP(&fc.ModelFile, "model", "m", "", "Saved model to use instead of the input reads")
	fs.StringVar(&fc.SaveModel, "save-model", "", "Save the model built from the input reads")
	fs.StringVar(&fc.Summary, "summary", "", "Write a run summary (TOML)")
	fs.Int64VarP(&fc.NumReads, "num-reads", "n", fc.NumReads, "Number of reads to generate")
	fs.Uint64VarP(&seed, "seed", "s", 0, "Random seed (random if not set)")
	fs.IntVarP(&fc.Threads, "threads", "t", fc.Threads, "Read generation threads")
	fs.IntVar(&fc.CompressionThreads, "compression-threads", fc.CompressionThreads, "BGZF compression threads")
	fs.IntVar(&fc.CompressionLevel, "compression-level", fc.CompressionLevel, "Deflate level (-1 default, 0-9)")
	fs.IntVar(&fc.BatchSize, "batch-size", fc.BatchSize, "Reads per work unit")
	fs.IntVar(&fc.MaxAttempts, "max-attempts", fc.MaxAttempts, "Draws per read before giving up on a too short reference")
	fs.Float64Var(&fc.Errors.Sub, "sub", fc.Errors.Sub, "Relative rate of substitutions")
	fs.Float64Var(&fc.Errors.Ins, "ins", fc.Errors.Ins, "Relative rate of insertions")
	fs.Float64Var(&fc.Errors.Del, "del", fc.Errors.Del, "Relative rate of deletions")
	fs.Float64Var(&fc.Errors.ExtIns, "ext-ins", fc.Errors.ExtIns, "Probability of extending an insertion by one more base")
	fs.Float64Var(&fc.Errors.ExtDel, "ext-del", fc.Errors.ExtDel, "Probability of extending a deletion by one more base")
	fs.BoolVarP(&progress, "progress", "p", false, "Show a progress bar")
	addModelFlags(fs, fc)

	pfs := cmd.PersistentFlags()
	pfs.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pfs.BoolVarP(&quiet, "quiet", "q", false, "Only print warnings and errors")

	return cmd
}

// Builds the model from the input reads
func buildModel(fname string, mcfg model.Config, seed uint64) (*model.Model, error) {
	b, err := model.NewBuilder(mcfg, seed)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = input.Parse(fname, func(length int, qual []byte) error {
		b.Add(length, qual)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if n := b.Skipped(); n > 0 {
		log.Warningf("%d reads without sequence or qualities skipped", n)
	}

	m, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}

	log.Infof("model built from %d reads in %s: %d length bins, %d quality profiles", m.Count(), time.Since(start).Round(time.Millisecond), len(m.Bins), m.PoolSize())
	return m, nil
}

func simulate(cfg *config.Config, progress bool) error {
	var m *model.Model

	if err := cfg.Validate(); err != nil {
		return err
	}

	// fail on an unsupported output name before the input is scanned
	if _, err := sim.FormatFor(cfg.Output, sim.HeaderInfo{}); err != nil {
		return err
	}

	if cfg.Seed == nil {
		s := rand.Uint64()
		cfg.Seed = &s
		log.Infof("no seed given, using %d", s)
	}
	seed := *cfg.Seed
	runID := sim.RunID(seed)
	log.Infof("run %s, seed %d", runID, seed)

	var err error
	if cfg.ModelFile != "" {
		m, err = model.LoadFile(cfg.ModelFile)
		if err == nil {
			log.Infof("model loaded from %s: %d length bins", cfg.ModelFile, len(m.Bins))
		}
	} else {
		m, err = buildModel(cfg.Input, cfg.Model, seed)
	}
	if err != nil {
		return err
	}

	minLen, maxLen := m.LengthRange()
	log.Debugf("read lengths %d-%d, mean %.1f", minLen, maxLen, m.MeanLength())

	if cfg.SaveModel != "" {
		if err := m.SaveFile(cfg.SaveModel); err != nil {
			return err
		}
		log.Infof("model saved to %s", cfg.SaveModel)
	}

	ref, err := reference.Load(cfg.Reference)
	if err != nil {
		return err
	}
	log.Infof("reference %s: %d contigs, %d bases", cfg.Reference, len(ref.Contigs()), ref.Len())

	em, err := errmdl.New(cfg.Errors)
	if err != nil {
		return err
	}

	a, err := sim.NewAssembler(m, ref, em, seed, cfg.MaxAttempts)
	if err != nil {
		return err
	}

	settings := sim.Settings{
		NumReads:           cfg.NumReads,
		Threads:            cfg.Threads,
		CompressionThreads: cfg.CompressionThreads,
		CompressionLevel:   cfg.CompressionLevel,
		BatchSize:          cfg.BatchSize,
	}

	var pbs *mpb.Progress
	var bar *mpb.Bar
	if progress && cfg.NumReads > 0 {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(cfg.NumReads,
			mpb.PrependDecorators(
				decor.Name("simulated reads: ", decor.WC{W: len("simulated reads: "), C: decor.DindentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 10),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)

		last := time.Now()
		settings.Progress = func(n int) {
			bar.EwmaIncrBy(n, time.Since(last))
			last = time.Now()
		}
	}

	hdr := sim.HeaderInfo{
		Program:     "readfaker",
		Version:     version,
		CommandLine: strings.Join(os.Args, " "),
		Comments:    []string{"run:" + runID.String(), fmt.Sprintf("seed:%d", seed)},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	st, err := sim.RunFile(ctx, a, cfg.Output, hdr, settings)
	if bar != nil {
		if err != nil {
			bar.Abort(false)
		}
		pbs.Wait()
	}
	if err != nil {
		return err
	}

	sum := sim.NewSummary(seed, cfg.Output, st)
	log.Infof("%d reads, %d bases (mean length %.1f, GC %.1f%%) written in %s", st.Reads, st.Bases, sum.MeanLength, 100*sum.GCContent, time.Since(start).Round(time.Millisecond))
	log.Infof("errors: %d substitutions, %d inserted and %d deleted bases (%.2f%%)", st.Events.Sub, st.Events.Ins, st.Events.Del, 100*sum.ErrorRate)

	if cfg.Summary != "" {
		if err := sum.WriteFile(cfg.Summary); err != nil {
			return err
		}
		log.Infof("summary written to %s", cfg.Summary)
	}

	return nil
}
