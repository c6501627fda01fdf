package main

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/permlab/internal/adapters/loader"
	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/usecases"
	"github.com/0xcro3dile/permlab/internal/infrastructure/report"
)

type analyzeOptions struct {
	draftPath string
	example   bool
	noColor   bool

	draft       entities.DraftFields
	corrections entities.CorrectionInputs
}

func newAnalyzeCommand(opts *globalOptions) *cobra.Command {
	a := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print a report",
		Long: `Run one analysis and print a report.

Measurements come from --draft, from --example, or from the individual
field flags; field flags override values read from a draft file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			draft, corrections, err := a.resolve(ctx, cmd)
			if err != nil {
				return err
			}

			session := usecases.NewAnalysisSession(opts.newAdapter(), opts.sessionOptions()...)
			session.SetCorrectionInputs(corrections)

			_, submitErr := session.Submit(ctx, draft)
			if submitErr == nil && !corrections.Empty() {
				if _, err := session.ApplyCorrection(corrections); err != nil {
					log.WithError(err).Warn("correction skipped")
				}
			}

			r := report.Renderer{Color: !a.noColor && !color.NoColor}
			if err := r.Render(os.Stdout, session.Snapshot()); err != nil {
				return err
			}
			return submitErr
		},
	}

	a.bindFlags(cmd)
	return cmd
}

func (a *analyzeOptions) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&a.draftPath, "draft", "f", "", "read measurements from a YAML or JSON draft file")
	f.BoolVar(&a.example, "example", false, "start from the built-in example measurement")
	f.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	f.StringVar(&a.draft.Length, "length", "", "sample length in mm")
	f.StringVar(&a.draft.Diameter, "diameter", "", "sample diameter in mm")
	f.StringVar(&a.draft.FlowRates, "flow-rates", "", "comma-delimited volumetric gas flow rates")
	f.StringVar(&a.draft.Pressures, "pressures", "", "comma-delimited differential pressures")
	f.StringVar(&a.corrections.ForchheimerIntercept, "forchheimer-intercept", "", "Forchheimer plot intercept")
	f.StringVar(&a.corrections.KlinkenbergIntercept, "klinkenberg-intercept", "", "Klinkenberg plot intercept")
}

// resolve layers the example, the draft file and explicit flags, in that order.
func (a *analyzeOptions) resolve(ctx context.Context, cmd *cobra.Command) (entities.DraftFields, entities.CorrectionInputs, error) {
	var (
		draft       entities.DraftFields
		corrections entities.CorrectionInputs
	)
	if a.example {
		draft = entities.ExampleDraft()
	}
	if a.draftPath != "" {
		file, err := loader.NewMultiLoader().Load(ctx, a.draftPath)
		if err != nil {
			return draft, corrections, fmt.Errorf("reading draft: %w", err)
		}
		draft, corrections = file.Draft, file.Corrections
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("length", &draft.Length, a.draft.Length)
	override("diameter", &draft.Diameter, a.draft.Diameter)
	override("flow-rates", &draft.FlowRates, a.draft.FlowRates)
	override("pressures", &draft.Pressures, a.draft.Pressures)
	override("forchheimer-intercept", &corrections.ForchheimerIntercept, a.corrections.ForchheimerIntercept)
	override("klinkenberg-intercept", &corrections.KlinkenbergIntercept, a.corrections.KlinkenbergIntercept)
	return draft, corrections, nil
}
