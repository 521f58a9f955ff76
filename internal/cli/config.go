package cli

import (
	"fmt"
	"os"

	"github.com/mercodata/wdi-harvest/pkg/harvest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective harvest configuration",
	Long: `Display the country registry, topic keyword categories, year range, and
pacing parameters the run command will use, as YAML.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (WDI_*)
3. Config file (~/.wdi-harvest/config.yaml)
4. Defaults`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := harvest.DefaultConfig()
		if y := viper.GetInt("start_year"); y != 0 {
			cfg.StartYear = y
		}
		if y := viper.GetInt("end_year"); y != 0 {
			cfg.EndYear = y
		}

		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", file)
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}
