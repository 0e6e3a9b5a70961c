package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-viability/internal/export"
	"github.com/sells-group/solar-viability/internal/model"
)

var viabilityCmd = &cobra.Command{
	Use:   "viability",
	Short: "Evaluate a viability request from a JSON file",
	Long:  "Reads a viability request (the same body POST /api/solar/viability accepts) and prints the report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input, _ := cmd.Flags().GetString("input")
		summary, _ := cmd.Flags().GetBool("summary")

		req, err := readRequest(cmd.InOrStdin(), input)
		if err != nil {
			return err
		}

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Engine.Evaluate(ctx, req)
		if err != nil {
			return err
		}

		if summary {
			export.WriteReport(cmd.OutOrStdout(), report)
			return nil
		}
		return writeIndented(cmd.OutOrStdout(), report)
	},
}

// readRequest decodes a viability request from path, or from stdin when path is "-".
func readRequest(stdin io.Reader, path string) (model.ViabilityRequest, error) {
	var req model.ViabilityRequest
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, eris.Wrap(err, "open request")
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, eris.Wrap(err, "decode request")
	}
	return req, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	viabilityCmd.Flags().String("input", "-", "request JSON file (- for stdin)")
	viabilityCmd.Flags().Bool("summary", false, "print a pt-BR summary instead of JSON")
	rootCmd.AddCommand(viabilityCmd)
}
