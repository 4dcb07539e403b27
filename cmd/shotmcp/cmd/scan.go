package cmd

import (
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shotmcp/internal/output"
	"github.com/Aman-CERP/shotmcp/internal/screenshot"
)

// scanReport is the JSON form of `shotmcp scan`.
type scanReport struct {
	Dir     string   `json:"dir"`
	Exists  bool     `json:"exists"`
	Highest uint64   `json:"highest"`
	Matched int      `json:"matched"`
	Skipped []string `json:"skipped"`
}

func newScanCmd(opts *globalOptions) *cobra.Command {
	var jsonOutput bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report the highest screenshot index on disk",
		Long: `Scan the screenshots directory the way the server does at startup and
report the highest index found. Nothing is created or modified.

Files named screenshot_<date>_<time>_<index>_<id>.png are counted. Files
with the screenshot_ prefix whose index cannot be parsed are reported as
skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, jsonOutput)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report := scanReport{Dir: cfg.ScreenshotsDir(), Exists: true, Skipped: []string{}}
			result, err := screenshot.ScanDir(report.Dir, a.logger.Logger)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				report.Exists = false
			case err != nil:
				return err
			default:
				report.Highest = result.Max
				report.Matched = result.Matched
				if result.Skipped != nil {
					report.Skipped = result.Skipped
				}
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			w := output.New(out)
			w.Field("Screenshots dir", report.Dir)
			if !report.Exists {
				w.Status("", "Directory does not exist yet; the next index will be 1.")
				return nil
			}
			w.Field("Highest index", report.Highest)
			w.Field("Next index", report.Highest+1)
			w.Field("Matched files", report.Matched)
			w.Field("Skipped files", len(report.Skipped))
			if verbose {
				for _, name := range report.Skipped {
					w.Item(name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List skipped file names")

	return cmd
}
