package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmplforge/doctpl/runtime/template"
	"github.com/tmplforge/doctpl/runtime/validate"
)

func newValidateCommand(configPath *string) *cobra.Command {
	var templatePath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Statically check a template and report its complexity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if templatePath == "" {
				return fmt.Errorf("--template is required")
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
			tpl, err := template.Open(templateBytes, cfg)
			if err != nil {
				return fmt.Errorf("opening template: %w", err)
			}
			rep, err := tpl.Validate(templateBytes)
			if err != nil {
				return fmt.Errorf("validating: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printReport(rep)
			if !rep.Valid {
				return fmt.Errorf("template is invalid")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "path to the .docx template")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	return cmd
}

func printReport(rep validate.Report) {
	fmt.Printf("valid: %v\n", rep.Valid)
	for _, e := range rep.Errors {
		fmt.Printf("error: %s\n", e)
	}
	for _, w := range rep.Warnings {
		fmt.Printf("warning: %s: %s\n", w.Kind, w.Message)
	}
	fmt.Printf("directives: %d vars, %d ifs, %d loops (%d nested), %d aggregates, %d stylings\n",
		rep.Statistics.Vars, rep.Statistics.Ifs, rep.Statistics.Loops, rep.Statistics.NestedLoops,
		rep.Statistics.Aggregates, rep.Statistics.Stylings)
	fmt.Printf("complexity score: %d\n", rep.Statistics.ComplexityScore())
}
