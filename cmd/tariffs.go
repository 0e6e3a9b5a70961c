package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/export"
	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/tariff"
)

var tariffsCmd = &cobra.Command{
	Use:   "tariffs",
	Short: "Resolve regulated tariffs for one or more UFs",
	Long:  "Resolves the final energy rate per UF. Pass --uf several times or a comma-separated list; without --uf every UF is listed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		qs, err := tariffQueries(cmd)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}
		resolver, err := newTariffResolver(st)
		if err != nil {
			return err
		}

		var out []model.TariffStructure
		for start := 0; start < len(qs); start += tariff.MaxBatch {
			end := min(start+tariff.MaxBatch, len(qs))
			batch, err := resolver.ResolveBatch(ctx, qs[start:end])
			if err != nil {
				return err
			}
			out = append(out, batch...)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(cmd.OutOrStdout(), out)
		}
		export.WriteTariffs(cmd.OutOrStdout(), out)
		return nil
	},
}

func tariffQueries(cmd *cobra.Command) ([]tariff.Query, error) {
	f := cmd.Flags()
	ufFlags, _ := f.GetStringSlice("uf")
	grupo, _ := f.GetString("grupo")
	classe, _ := f.GetString("classe")
	modalidade, _ := f.GetString("modalidade")
	bandeira, _ := f.GetString("bandeira")
	concessionaria, _ := f.GetString("concessionaria")

	var ufs []model.UF
	if len(ufFlags) == 0 {
		ufs = model.AllUFs()
	}
	for _, s := range ufFlags {
		u, ok := model.ParseUF(s)
		if !ok {
			return nil, model.NewValidationError("uf", "unknown UF %q", s)
		}
		ufs = append(ufs, u)
	}

	qs := make([]tariff.Query, 0, len(ufs))
	for _, u := range ufs {
		qs = append(qs, tariff.Query{
			UF:             u,
			Grupo:          model.Grupo(strings.ToUpper(grupo)),
			Classe:         model.Classe(classe),
			Modalidade:     model.Modalidade(modalidade),
			Bandeira:       model.Bandeira(bandeira),
			Concessionaria: concessionaria,
		})
	}
	return qs, nil
}

var tariffsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load base tariffs into the store",
	Long:  "Upserts the built-in base tariffs, or the rows of --file, into the configured store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rows := tariff.BuiltinRates()
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			var err error
			if rows, err = tariff.LoadTable(path); err != nil {
				return err
			}
		}

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.UpsertTariffRates(ctx, rows); err != nil {
			return eris.Wrap(err, "seed tariffs")
		}
		zap.L().Info("tariffs seeded", zap.Int("rows", len(rows)), zap.String("store", cfg.Store.Driver))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tariff rows\n", len(rows))
		return nil
	},
}

func init() {
	f := tariffsCmd.Flags()
	f.StringSlice("uf", nil, "UF codes (default all)")
	f.String("grupo", "B1", "tariff group: B1-B4, A1-A4, AS")
	f.String("classe", "", "consumer class (default by group)")
	f.String("modalidade", "", "modality: convencional, horaria_branca, horaria_verde, horaria_azul")
	f.String("bandeira", "", "tariff flag: verde, amarela, vermelha_1, vermelha_2")
	f.String("concessionaria", "", "distributor ID (default the UF's first)")
	f.Bool("json", false, "print JSON instead of a table")

	tariffsSeedCmd.Flags().String("file", "", "YAML tariff table (default built-in rates)")
	tariffsCmd.AddCommand(tariffsSeedCmd)
	rootCmd.AddCommand(tariffsCmd)
}
