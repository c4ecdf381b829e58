package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/salmanhiro/starnet/adapters/columnar"
	"github.com/salmanhiro/starnet/adapters/excel"
	"github.com/salmanhiro/starnet/adapters/postgres"
	"github.com/salmanhiro/starnet/adapters/regressor"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal/config"
	"github.com/salmanhiro/starnet/internal/pipeline"
	"github.com/salmanhiro/starnet/internal/preprocess"
	"github.com/salmanhiro/starnet/internal/rng"
	"github.com/salmanhiro/starnet/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "starnet",
		Short: "Stellar-parameter pipeline: cleaning, training splits, and uncertainty estimation",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newCleanCmd(),
		newPredictCmd(),
		newSynthCmd(),
		newMirrorCmd(),
		newCatalogCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var archive string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: clean, normalize, split, train baseline, score",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if archive == "" {
				archive = cfg.Paths.ArchiveFile
			}

			rngAdapter := rng.NewAdapter()
			service := pipeline.NewService(cfg, columnar.NewStore(), rngAdapter)

			stream, err := rngAdapter.SeededStream(cmd.Context(), "baseline", cfg.Data.Seed)
			if err != nil {
				return err
			}
			model := regressor.NewRidge(1.0, stream)

			result, err := service.Run(cmd.Context(), archive, model)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&archive, "archive", "", "columnar archive path (defaults to ARCHIVE_FILE)")
	return cmd
}

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [archive]",
		Short: "Clean an archive and report what was scrubbed and removed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			set, err := columnar.NewStore().Load(cmd.Context(), args[0], dataset.DefaultLabelColumns())
			if err != nil {
				return err
			}
			pre := preprocess.New(preprocess.Config{Workers: cfg.Data.CleanWorkers})
			result, err := pre.Clean(cmd.Context(), set)
			if err != nil {
				return err
			}
			return printJSON(result.Report)
		},
	}
	return cmd
}

func newPredictCmd() *cobra.Command {
	var row int

	cmd := &cobra.Command{
		Use:   "predict [archive]",
		Short: "Train the baseline and estimate one spectrum's labels with uncertainty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rngAdapter := rng.NewAdapter()
			store := columnar.NewStore()
			service := pipeline.NewService(cfg, store, rngAdapter)

			stream, err := rngAdapter.SeededStream(ctx, "baseline", cfg.Data.Seed)
			if err != nil {
				return err
			}
			model := regressor.NewRidge(1.0, stream)
			if _, err := service.Run(ctx, args[0], model); err != nil {
				return err
			}

			set, err := store.Load(ctx, args[0], dataset.DefaultLabelColumns())
			if err != nil {
				return err
			}
			if row < 0 || row >= set.Len() {
				return fmt.Errorf("row %d outside archive of %d spectra", row, set.Len())
			}
			var errorSpectrum dataset.Spectrum
			if set.Errors != nil {
				errorSpectrum = set.Errors[row]
			}

			sample, err := service.PredictWithUncertainty(ctx, model, set.Spectra[row], errorSpectrum)
			if err != nil {
				return err
			}
			return printJSON(sample)
		},
	}
	cmd.Flags().IntVar(&row, "row", 0, "archive row to predict")
	return cmd
}

func newSynthCmd() *cobra.Command {
	var (
		rows int
		bins int
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "synth [output]",
		Short: "Write a synthetic archive for smoke-testing the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stream, err := rng.NewAdapter().SeededStream(cmd.Context(), "synth", seed)
			if err != nil {
				return err
			}
			set := testkit.SyntheticReferenceSet(rows, bins, stream)
			container, err := columnar.BuildContainer(set, dataset.DefaultLabelColumns())
			if err != nil {
				return err
			}
			if err := columnar.Save(container, args[0]); err != nil {
				return err
			}
			fmt.Printf("wrote %d spectra of %d bins to %s\n", rows, bins, args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 1000, "number of spectra")
	cmd.Flags().IntVar(&bins, "bins", 256, "wavelength bins per spectrum")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	return cmd
}

func newMirrorCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "mirror [archive]",
		Short: "Mirror a columnar archive into the relational store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required for mirroring")
			}
			ctx := cmd.Context()

			db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}

			set, err := columnar.NewStore().Load(ctx, args[0], dataset.DefaultLabelColumns())
			if err != nil {
				return err
			}
			mirror := postgres.NewSpectrumRepository(db)
			if err := mirror.Import(ctx, name, set, dataset.DefaultLabelColumns()); err != nil {
				return err
			}
			count, err := mirror.Count(ctx, name)
			if err != nil {
				return err
			}
			fmt.Printf("mirrored %d spectra as archive %q\n", count, name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "archive name in the mirror")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [catalog-file] [archive] [output]",
		Short: "Replace an archive's labels with values from a survey catalog",
		Long: `Reads TEFF, LOGG, and FE_H columns from an xlsx or csv catalog and writes a
new archive with those labels attached to the existing spectra, row-aligned.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			labels := dataset.DefaultLabelColumns()

			columns, err := excel.NewCatalogReader().ReadColumns(ctx, args[0], labels)
			if err != nil {
				return err
			}

			set, err := columnar.NewStore().Load(ctx, args[1], labels)
			if err != nil {
				return err
			}
			if len(columns[labels[0]]) != set.Len() {
				return fmt.Errorf("catalog has %d rows, archive has %d spectra",
					len(columns[labels[0]]), set.Len())
			}
			for row := range set.Labels {
				for i, key := range labels {
					set.Labels[row][i] = columns[key][row]
				}
			}

			container, err := columnar.BuildContainer(set, labels)
			if err != nil {
				return err
			}
			return columnar.Save(container, args[2])
		},
	}
	return cmd
}

func printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
