package cli

import (
	"time"

	"github.com/mercodata/wdi-harvest/pkg/client"
	"github.com/mercodata/wdi-harvest/pkg/export"
	"github.com/mercodata/wdi-harvest/pkg/harvest"
	"github.com/mercodata/wdi-harvest/pkg/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch topics, indicators, and series, then write the output tables",
	Long: `Resolve the configured topic categories, enumerate every indicator under
them, download the time series for all configured countries, and write the
indicator metadata, observations, and summary-count tables.

Exits non-zero when no topic ids can be resolved or when writing the main
artifacts fails. A summary-table failure only logs a warning.`,
	RunE: runHarvest,
}

func init() {
	runCmd.Flags().Int("start-year", 2000, "first year of the date range")
	runCmd.Flags().Int("end-year", 2024, "last year of the date range")
	runCmd.Flags().String("out-prefix", "worldbank_wdi_mercosur_chile", "output filename prefix")
	runCmd.Flags().Float64("sleep", 0.1, "courtesy pause between indicator fetches, in seconds")

	_ = viper.BindPFlag("start_year", runCmd.Flags().Lookup("start-year"))
	_ = viper.BindPFlag("end_year", runCmd.Flags().Lookup("end-year"))
	_ = viper.BindPFlag("out_prefix", runCmd.Flags().Lookup("out-prefix"))
	_ = viper.BindPFlag("sleep", runCmd.Flags().Lookup("sleep"))
}

func runHarvest(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if viper.GetBool("verbose") {
		level = logging.LevelDebug
	}
	logging.Setup(logging.Config{Level: level, Pretty: true})

	c, err := client.New(client.DefaultConfig())
	if err != nil {
		return err
	}

	cfg := harvest.DefaultConfig()
	cfg.StartYear = viper.GetInt("start_year")
	cfg.EndYear = viper.GetInt("end_year")
	cfg.IndicatorDelay = time.Duration(viper.GetFloat64("sleep") * float64(time.Second))

	driver := harvest.New(c, cfg)
	result, err := driver.Run(cmd.Context())
	if err != nil {
		return err
	}

	prefix := viper.GetString("out_prefix")
	paths, err := export.WriteAll(prefix, result)
	if err != nil {
		return err
	}
	log.Info().
		Str("indicators", paths.IndicatorsCSV).
		Str("observations", paths.ObservationsCSV).
		Str("workbook", paths.Workbook).
		Int("indicator_rows", len(result.Indicators)).
		Int("observation_rows", len(result.Observations)).
		Msg("Artifacts written")

	if err := export.WriteSummaryCSV(paths.SummaryCSV, result.Summary); err != nil {
		log.Warn().Err(err).Msg("Summary table not written")
	} else {
		log.Info().Str("summary", paths.SummaryCSV).Msg("Summary written")
	}
	return nil
}
