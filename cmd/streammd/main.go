// Command streammd marks PCR/optical duplicate alignments in a
// qname-grouped SAM stream, reading stdin and writing the same
// records to stdout with flag bit 0x400 set on replicates. See
// SPEC_FULL.md for the full design.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/streammd/streammd/internal/bloomfilter"
	"github.com/streammd/streammd/internal/dedup"
	"github.com/streammd/streammd/internal/logging"
	"github.com/streammd/streammd/internal/version"
)

const (
	defaultNItems    = 1_000_000_000
	defaultFPRate    = 1e-6
	defaultConsumers = 8
	defaultQueueSize = 1000
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// --mem-calc and --version take a deliberately non-flag-package
	// shape (a subcommand-like two-positional-argument form for
	// --mem-calc), so they are recognized before handing the rest to
	// the standard flag.FlagSet, matching the CLI surface spec.md §6
	// defines verbatim.
	if len(args) > 0 && args[0] == "--version" {
		fmt.Println(version.Version)
		return 0
	}
	if len(args) > 0 && args[0] == "--mem-calc" {
		return runMemCalc(args[1:])
	}

	fs := flag.NewFlagSet("streammd", flag.ContinueOnError)
	inputPath := fs.String("input", "", "input SAM path (default: stdin)")
	outputPath := fs.String("output", "", "output SAM path (default: stdout)")
	var nItems uint64
	fs.Uint64Var(&nItems, "n-items", defaultNItems, "target Bloom filter capacity (items)")
	fs.Uint64Var(&nItems, "n", defaultNItems, "shorthand for --n-items")
	var fpRate float64
	fs.Float64Var(&fpRate, "fp-rate", defaultFPRate, "target Bloom filter false-positive rate")
	fs.Float64Var(&fpRate, "p", defaultFPRate, "shorthand for --fp-rate")
	consumers := fs.Int("consumer-processes", defaultConsumers, "number of worker goroutines")
	queueSize := fs.Int("queue-size", defaultQueueSize, "work-channel capacity, in batches")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := logging.New()
	defer logger.Sync() //nolint:errcheck // best-effort flush on exit

	in := os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			logger.Errorw("open input", "error", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			logger.Errorw("open output", "error", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	filter, err := bloomfilter.NewMinimumMemory(nItems, fpRate)
	if err != nil {
		logger.Errorw("size bloom filter", "error", err)
		return 1
	}
	logger.Infow("sized bloom filter",
		"n_items", nItems, "fp_rate", fpRate,
		"m_bits", filter.Handle().M, "k_hashes", filter.Handle().K,
		"approx_bytes", humanize.Bytes(filter.Handle().M/8))

	_, err = dedup.Run(dedup.Options{
		Input:       in,
		Output:      out,
		Filter:      filter,
		NConsumers:  *consumers,
		QueueSize:   *queueSize,
		Logger:      logger,
		Version:     version.Version,
		CommandLine: strings.Join(os.Args, " "),
	})
	if err != nil {
		logger.Errorw("streammd failed", "error", err)
		return 1
	}
	return 0
}

func runMemCalc(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: streammd --mem-calc N_ITEMS FP_RATE")
		return 2
	}
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "streammd: invalid N_ITEMS %q: %v\n", args[0], err)
		return 2
	}
	p, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "streammd: invalid FP_RATE %q: %v\n", args[1], err)
		return 2
	}
	bytes := bloomfilter.MinimumMemoryBytes(n, p)
	gb := float64(bytes) / (1024 * 1024 * 1024)
	fmt.Printf("%0.3fGB\n", gb)
	return 0
}
