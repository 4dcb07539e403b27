package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
	"github.com/Aman-CERP/shotmcp/internal/screenshot"
)

// allocation is one index handed out by `shotmcp next`.
type allocation struct {
	Index    uint64 `json:"index"`
	Filename string `json:"filename"`
}

func newNextCmd(opts *globalOptions) *cobra.Command {
	var count int
	var workers int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Allocate screenshot indices after the highest one on disk",
		Long: `Seed a counter from the screenshots directory and allocate the next
indices, printing one suggested file name per line in index order.

Allocation is in-memory: indices advance on disk only once files with those
names are written. --workers spreads the allocations over concurrent
goroutines; the printed set is the same either way.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return shoterrors.ValidationError(fmt.Sprintf("--count must be at least 1, got %d", count), nil)
			}
			if workers < 1 {
				return shoterrors.ValidationError(fmt.Sprintf("--workers must be at least 1, got %d", workers), nil)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, jsonOutput)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			counter := screenshot.NewCounter(screenshot.WithLogger(a.logger.Logger))
			if _, err := counter.InitializeFromExisting(cfg.ScreenshotsDir()); err != nil {
				return err
			}

			allocs, err := allocate(cmd.Context(), counter, count, workers, time.Now)
			if err != nil {
				return err
			}
			a.logger.Debug("allocated indices",
				slog.Int("count", len(allocs)),
				slog.Int("workers", workers))

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(allocs)
			}
			for _, al := range allocs {
				fmt.Fprintln(out, al.Filename)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of indices to allocate")
	cmd.Flags().IntVar(&workers, "workers", 1, "Number of concurrent allocating goroutines")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output allocations as JSON")

	return cmd
}

// allocate draws count indices from counter using workers goroutines and
// returns them sorted by index.
func allocate(ctx context.Context, counter *screenshot.Counter, count, workers int, now func() time.Time) ([]allocation, error) {
	var (
		mu     sync.Mutex
		allocs = make([]allocation, 0, count)
	)

	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		share := count / workers
		if w < count%workers {
			share++
		}
		if share == 0 {
			continue
		}

		g.Go(func() error {
			local := make([]allocation, 0, share)
			for range share {
				if err := ctx.Err(); err != nil {
					return err
				}
				index, name := counter.NextFilename(now())
				local = append(local, allocation{Index: index, Filename: name})
			}

			mu.Lock()
			allocs = append(allocs, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(allocs, func(i, j int) bool { return allocs[i].Index < allocs[j].Index })
	return allocs, nil
}
