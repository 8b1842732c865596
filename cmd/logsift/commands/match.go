package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/spf13/cobra"

	"github.com/logsift/logsift/internal/catalog"
	"github.com/logsift/logsift/internal/logging"
	"github.com/logsift/logsift/internal/matcher"
)

var (
	matchCatalogPath string
	matchInputPath   string
	matchParallel    bool
	matchCounts      bool
	matchQuiet       bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Classify log lines against a catalog",
	Long: `Classify log lines against a template catalog.

Reads one log line per input line from --input (or stdin), prints the
matched template id per line ("-" for a miss), and optionally a
per-template tally. Lines are processed in batches of the configured
optimal_batch_size; with --parallel a batch holds one such chunk per
worker goroutine.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchCatalogPath, "catalog", "",
		"Path to the template catalog (.json readable form, otherwise binary)")
	matchCmd.Flags().StringVar(&matchInputPath, "input", "",
		"Path to the log file to classify (default: stdin)")
	matchCmd.Flags().BoolVar(&matchParallel, "parallel", false,
		"Match each batch across worker goroutines")
	matchCmd.Flags().BoolVar(&matchCounts, "counts", false,
		"Print a per-template tally after classification")
	matchCmd.Flags().BoolVar(&matchQuiet, "quiet", false,
		"Suppress per-line output (useful with --counts)")
	_ = matchCmd.MarkFlagRequired("catalog")
}

func runMatch(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("cli.match")

	cfg, err := loadMatcherConfig()
	if err != nil {
		return err
	}

	reg, err := catalog.LoadCatalogFile(matchCatalogPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	m := matcher.NewWithConfig(cfg)
	m.ReplaceRegistry(reg)

	logger.InfoWithFields("catalog loaded",
		logging.Field("path", matchCatalogPath),
		logging.Field("templates", reg.Snapshot().Len()),
		logging.Field("invalid", reg.InvalidTemplates()),
	)

	var in io.Reader = os.Stdin
	if matchInputPath != "" {
		f, err := os.Open(matchInputPath)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var total, matched int
	tally := make(map[uint64]int)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	// MatchBatchParallel splits a batch into OptimalBatchSize chunks, so a
	// parallel batch spans one chunk per worker to give it work to fan out.
	batchSize := cfg.OptimalBatchSize
	if matchParallel {
		batchSize *= runtime.GOMAXPROCS(0)
	}
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		var results []matcher.Match
		if matchParallel {
			results = m.MatchBatchParallel(batch)
		} else {
			results = m.MatchBatch(batch)
		}
		for i, res := range results {
			total++
			if res.Matched {
				matched++
				tally[res.TemplateID]++
			}
			if matchQuiet {
				continue
			}
			if res.Matched {
				fmt.Fprintf(out, "%d\t%s\n", res.TemplateID, batch[i])
			} else {
				fmt.Fprintf(out, "-\t%s\n", batch[i])
			}
		}
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		batch = append(batch, scanner.Text())
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	if matchCounts {
		ids := make([]uint64, 0, len(tally))
		for id := range tally {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return tally[ids[i]] > tally[ids[j]] })
		fmt.Fprintf(out, "\n%d/%d lines matched\n", matched, total)
		for _, id := range ids {
			fmt.Fprintf(out, "template %d: %d\n", id, tally[id])
		}
	}

	return nil
}
