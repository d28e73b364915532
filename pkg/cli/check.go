package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/markcheck/markcheck/pkg/logger"
	"github.com/markcheck/markcheck/pkg/markup"
	"github.com/markcheck/markcheck/pkg/util"
	"github.com/spf13/cobra"
)

const (
	rejectedFile     = "rejected.json"
	tooSmallFile     = "too_small.json"
	inconsistentFile = "inconsistent.json"
)

// checkRun is a loaded check config with its markup and image sizer.
type checkRun struct {
	cfg     *markup.CheckConfig
	samples []markup.Sample
	sizer   *markup.DirSizer

	markupLayout markup.Layout
	imagesLayout markup.Layout
}

func loadCheckRun(checkFile, wrongCasesDir string) (*checkRun, error) {
	cfg, err := markup.CheckFromFile(checkFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load check config: %w", err)
	}
	if wrongCasesDir != "" {
		cfg.Spec.WrongCasesDir = wrongCasesDir
	}

	samples, err := markup.Load(cfg.Spec.MarkupFile)
	if err != nil {
		return nil, err
	}

	markupLayout, imagesLayout := cfg.Spec.Layouts()
	sizer, err := markup.NewDirSizer(cfg.Spec.ImagesDir, markupLayout, imagesLayout)
	if err != nil {
		return nil, err
	}

	return &checkRun{
		cfg:          cfg,
		samples:      samples,
		sizer:        sizer,
		markupLayout: markupLayout,
		imagesLayout: imagesLayout,
	}, nil
}

// withImages returns the samples whose image exists.
func (r *checkRun) withImages() ([]markup.Sample, error) {
	res, err := markup.CheckFilesHaveImages(r.samples, r.cfg.Spec.ImagesDir, r.markupLayout, r.imagesLayout)
	if err != nil {
		return nil, err
	}

	missing := make(map[string]bool, len(res.Cases))
	for _, c := range res.Cases {
		missing[markup.Restructure(c, r.imagesLayout, r.markupLayout)] = true
	}

	out := make([]markup.Sample, 0, len(r.samples))
	for _, s := range r.samples {
		if !missing[s.FileName] {
			out = append(out, s)
		}
	}
	return out, nil
}

// filter applies the label filter and then the size filter to the samples
// that have an image.
func (r *checkRun) filter(ctx context.Context, w io.Writer) (markup.Answers, []markup.Rejection, []markup.BoxRejection, error) {
	withImages, err := r.withImages()
	if err != nil {
		return nil, nil, nil, err
	}

	kept, rejected := markup.FilterByLabel(withImages)
	util.Verbosef(ctx, w, "Label filter kept %d of %d samples", len(kept), len(withImages))

	answers, tooSmall, err := markup.FilterBySize(kept, r.sizer, r.cfg.Spec.MinRelativeSizeOrDefault())
	if err != nil {
		return nil, nil, nil, err
	}
	util.Verbosef(ctx, w, "Size filter dropped %d boxes", len(tooSmall))

	return answers, rejected, tooSmall, nil
}

func (r *checkRun) writeReport(name string, v any) (string, error) {
	if err := os.MkdirAll(r.cfg.Spec.WrongCasesDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create wrong cases dir: %w", err)
	}

	p := filepath.Join(r.cfg.Spec.WrongCasesDir, name)
	if err := writeJSON(p, v); err != nil {
		return "", err
	}
	return p, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var wrongCasesDir string

	cmd := &cobra.Command{
		Use:   "check <check-file>",
		Short: "Check exported markup for consistency",
		Long: `Check an exported markup file against its images: every record has an image,
every image has markup, and the configured fields are unique. Unusable samples
and boxes too small to mark are written next to the failing cases.

Exits with code 0 if every check passes, code 1 otherwise.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			log := logger.FromContext(ctx)

			run, err := loadCheckRun(args[0], wrongCasesDir)
			if err != nil {
				return err
			}
			spec := run.cfg.Spec

			var checks []markup.CheckResult

			res, err := markup.CheckFilesHaveImages(run.samples, spec.ImagesDir, run.markupLayout, run.imagesLayout)
			if err != nil {
				return err
			}
			checks = append(checks, res)

			res, err = markup.CheckImagesHaveMarkup(run.samples, spec.ImagesDir, spec.ImageGlob, run.markupLayout, run.imagesLayout)
			if err != nil {
				return err
			}
			checks = append(checks, res)

			for _, field := range spec.UniqueFields {
				checks = append(checks, markup.CheckUniqueField(run.samples, field))
			}

			for _, c := range checks {
				p, err := markup.WriteCases(spec.WrongCasesDir, c)
				if err != nil {
					return err
				}
				if p != "" {
					log.Debug("wrote wrong cases", "check", c.Name, "file", p)
				}
			}

			_, rejected, tooSmall, err := run.filter(ctx, out)
			if err != nil {
				return err
			}
			if len(rejected) > 0 {
				if _, err := run.writeReport(rejectedFile, rejected); err != nil {
					return err
				}
			}
			if len(tooSmall) > 0 {
				if _, err := run.writeReport(tooSmallFile, tooSmall); err != nil {
					return err
				}
			}

			passed := outputCheckResults(out, run.cfg.Metadata.Name, checks, len(rejected), len(tooSmall))
			if !passed {
				// silent error (SilenceErrors: true), sets exit code 1
				return fmt.Errorf("checks failed")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&wrongCasesDir, "wrong-cases-dir", "", "Directory for failing cases (overrides the check file)")

	return cmd
}

func outputCheckResults(w io.Writer, name string, checks []markup.CheckResult, rejected, tooSmall int) bool {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	bold := color.New(color.Bold)

	_, _ = bold.Fprintf(w, "=== Markup Checks: %s ===\n", name)
	fmt.Fprintln(w)

	passed := true
	for _, c := range checks {
		if c.Passed {
			_, _ = green.Fprintf(w, "✓ %-24s %s\n", c.Name, c.Message)
			continue
		}
		passed = false
		_, _ = red.Fprintf(w, "✗ %-24s %s\n", c.Name, c.Message)
	}

	fmt.Fprintln(w)
	if rejected > 0 {
		_, _ = yellow.Fprintf(w, "Rejected samples: %d\n", rejected)
	}
	if tooSmall > 0 {
		_, _ = yellow.Fprintf(w, "Boxes too small:  %d\n", tooSmall)
	}

	if passed {
		_, _ = green.Fprintln(w, "Result: PASSED")
	} else {
		_, _ = red.Fprintln(w, "Result: FAILED")
	}

	return passed
}
