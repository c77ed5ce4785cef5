package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicewell/internal/dispatch"
	"voicewell/internal/domain"
	"voicewell/internal/intent"
	"voicewell/internal/normalize"
)

func newClassifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [phrase...]",
		Short: "Show which intent a phrase resolves to",
		Long: `Runs a phrase through the configured normalize rules and the intent
classifier, then prints the panel and confirmation it would produce.

Example:
  voicewell classify show my vital signs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalizer, err := normalize.Load(c.cfg.Normalize.Path, c.cfg.Normalize.Rules, c.cfg.Normalize.MaxPasses)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			normalized, err := normalizer.Apply(text)
			if err != nil {
				return err
			}
			got := intent.NewClassifier().Classify(normalized)

			out := cmd.OutOrStdout()
			if normalized != text {
				fmt.Fprintf(out, "normalized:   %s\n", normalized)
			}
			fmt.Fprintf(out, "intent:       %s\n", got)
			switch route, ok := dispatch.Lookup(got); {
			case ok:
				fmt.Fprintf(out, "panel:        %s\n", route.Panel)
				fmt.Fprintf(out, "confirmation: %s\n", route.Confirmation)
				if route.Popup != "" {
					fmt.Fprintf(out, "popup:        %s\n", route.Popup)
				}
			case got == domain.IntentStop:
				fmt.Fprintln(out, "action:       stop listening")
			default:
				fmt.Fprintf(out, "confirmation: %s\n", dispatch.FallbackPhrase)
			}
			return nil
		},
	}
}
