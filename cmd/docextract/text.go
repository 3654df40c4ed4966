package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/core/extract"
	"github.com/joseph-ayodele/docextract/internal/services/batch"
	"github.com/joseph-ayodele/docextract/internal/textextract"
)

func newTextCmd(a *app) *cobra.Command {
	var showFields bool
	cmd := &cobra.Command{
		Use:   "text [pdf]",
		Short: "Print the decoded text layer of one PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := textextract.NewExtractor(batch.TextConfig(*a.cfg), a.logger)
			res, err := ex.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("# method=%s pages=%d chars=%d insufficient=%t\n", res.Method, res.Pages, len([]rune(res.Text)), res.Insufficient)
			cmd.Println(res.Text)

			if showFields {
				raw := extract.New(a.logger).Extract(res.Text)
				cmd.Println("# fields")
				for _, f := range raw.Fields() {
					v, _ := raw.Get(f)
					cmd.Printf("%-17s %-40q %s@%d\n", f, v.Value, v.Provenance.MatcherID, v.Provenance.Offset)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showFields, "fields", false, "also print the raw extracted fields with their matchers")
	return cmd
}
