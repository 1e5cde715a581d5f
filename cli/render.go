package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tmplforge/doctpl/runtime/template"
)

func newRenderCommand(configPath *string) *cobra.Command {
	var templatePath, dataPath, outPath string
	var watch bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template against a JSON data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if templatePath == "" || dataPath == "" || outPath == "" {
				return fmt.Errorf("--template, --data, and --out are required")
			}
			if err := renderOnce(*configPath, templatePath, dataPath, outPath); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRerender(*configPath, templatePath, dataPath, outPath)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "path to the .docx template")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "path to a JSON data file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "path to write the rendered .docx")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-render whenever the template or data file changes")
	return cmd
}

func renderOnce(configPath, templatePath, dataPath, outPath string) error {
	fc, err := loadConfig(configPath)
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
	var data interface{}
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return fmt.Errorf("parsing data JSON: %w", err)
	}

	tpl, err := template.Open(templateBytes, cfg)
	if err != nil {
		return fmt.Errorf("opening template: %w", err)
	}
	res, err := tpl.Render(templateBytes, data)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s (offset %d)\n", w.Kind, w.Message, w.Pos.OpenStart)
	}
	if err := os.WriteFile(outPath, res.Output, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("rendered %s -> %s\n", filepath.Base(templatePath), outPath)
	return nil
}

// watchAndRerender re-renders whenever the template or data file is
// written, using fsnotify the way the ambient stack's file-watch
// component is named in the domain-stack wiring table.
func watchAndRerender(configPath, templatePath, dataPath, outPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	for _, p := range []string{templatePath, dataPath} {
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
	}

	fmt.Printf("watching %s and %s for changes (ctrl-c to stop)\n", templatePath, dataPath)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := renderOnce(configPath, templatePath, dataPath, outPath); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}
}
