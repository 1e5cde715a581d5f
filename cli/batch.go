package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmplforge/doctpl/runtime/template"
)

func newBatchCommand(configPath *string) *cobra.Command {
	var templatePath, dataPath, outDir string
	var batchSize int
	var batchDelay time.Duration

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render a template against a JSON array of data objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if templatePath == "" || dataPath == "" || outDir == "" {
				return fmt.Errorf("--template, --data, and --out-dir are required")
			}
			fc, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg, err := fc.toTemplateConfig()
			if err != nil {
				return fmt.Errorf("loading schema: %w", err)
			}

			templateBytes, err := os.ReadFile(templatePath)
			if err != nil {
				return fmt.Errorf("reading template: %w", err)
			}
			dataBytes, err := os.ReadFile(dataPath)
			if err != nil {
				return fmt.Errorf("reading data: %w", err)
			}
			var datas []interface{}
			if err := json.Unmarshal(dataBytes, &datas); err != nil {
				return fmt.Errorf("parsing data JSON array: %w", err)
			}

			tpl, err := template.Open(templateBytes, cfg)
			if err != nil {
				return fmt.Errorf("opening template: %w", err)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}

			results := tpl.RenderBatch(context.Background(), templateBytes, datas, template.BatchOptions{
				BatchSize:  batchSize,
				BatchDelay: batchDelay,
			})

			failures := 0
			for _, r := range results {
				if !r.Success {
					failures++
					fmt.Fprintf(os.Stderr, "item %d failed: %v\n", r.Index, r.Err)
					continue
				}
				outPath := filepath.Join(outDir, fmt.Sprintf("%04d.docx", r.Index))
				if err := os.WriteFile(outPath, r.Output, 0o644); err != nil {
					return fmt.Errorf("writing item %d: %w", r.Index, err)
				}
			}
			fmt.Printf("rendered %d/%d items into %s\n", len(results)-failures, len(results), outDir)
			if failures > 0 {
				return fmt.Errorf("%d item(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "path to the .docx template")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "path to a JSON file containing an array of data objects")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "directory to write rendered .docx files into")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "number of items to render concurrently (0 = all at once)")
	cmd.Flags().DurationVar(&batchDelay, "batch-delay", 0, "pause between batches, to throttle downstream load")
	return cmd
}
