package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/vetimport/internal/core"
)

type resolution struct {
	Input    string `json:"input"`
	Date     string `json:"date,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Error    string `json:"error,omitempty"`
	Resolved bool   `json:"resolved"`
}

func newResolveDateCmd(c *cli) *cobra.Command {
	var serial bool

	cmd := &cobra.Command{
		Use:   "resolve-date <value>...",
		Short: "Show how date values would be interpreted",
		Long: `Resolve each value with the same rules the import pipeline applies to
date fields and print the calendar date and the rule that matched.

With --serial, values are read as spreadsheet serial day numbers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := resolveAll(core.NewDateResolver(time.Now), args, serial)

			out := cmd.OutOrStdout()
			if c.output != outputText {
				return writeStructured(out, c.output, results)
			}

			for _, r := range results {
				if !r.Resolved {
					fmt.Fprintf(out, "%-24s  invalid: %s\n", r.Input, r.Error)
					continue
				}
				fmt.Fprintf(out, "%-24s  %s  (%s)\n", r.Input, r.Date, r.Rule)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&serial, "serial", false, "Treat values as spreadsheet serial day numbers")

	return cmd
}

func resolveAll(resolver core.DateResolver, args []string, serial bool) []resolution {
	results := make([]resolution, 0, len(args))
	for _, arg := range args {
		var v any = arg
		if serial {
			v = json.Number(arg)
		}

		r := resolution{Input: arg}
		t, rule, err := resolver.Explain(v)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Resolved = true
			r.Date = core.FormatDate(t)
			r.Rule = rule
		}
		results = append(results, r)
	}
	return results
}
