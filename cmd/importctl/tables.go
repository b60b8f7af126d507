package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/vetimport/internal/core"
)

type tableRow struct {
	TableType     core.TableType `json:"tableType"`
	Label         string         `json:"label"`
	RequiredField string         `json:"requiredField"`
	Endpoint      string         `json:"endpoint"`
}

func newTablesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List importable table types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := core.All()
			rows := make([]tableRow, len(defs))
			for i, def := range defs {
				rows[i] = tableRow{
					TableType:     def.Type,
					Label:         def.Label,
					RequiredField: def.RequiredField,
					Endpoint:      def.Endpoint,
				}
			}

			out := cmd.OutOrStdout()
			if c.output != outputText {
				return writeStructured(out, c.output, rows)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tLABEL\tREQUIRED FIELD\tENDPOINT")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.TableType, r.Label, r.RequiredField, r.Endpoint)
			}
			return tw.Flush()
		},
	}
}
