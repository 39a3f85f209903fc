package main

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/vango-dev/signup/internal/signup"
)

func schemaCmd() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the signup values",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := signup.Schema().Raw()
			var buf bytes.Buffer
			var err error
			if compact {
				err = json.Compact(&buf, raw)
			} else {
				err = json.Indent(&buf, raw, "", "  ")
			}
			if err != nil {
				return err
			}
			buf.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print the schema on one line")
	return cmd
}
