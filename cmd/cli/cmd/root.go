package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "quantctl",
	Short: "Quantctl is a command line tool for the quantplane forecasting pipeline",
	Long: `quantctl is the command-line interface for the QuantPlane time-series
forecasting platform.

QuantPlane runs a staged asynchronous pipeline: dataset versions are
normalized and profiled, forecast jobs score a moving-average baseline,
signal runs apply threshold strategies to the forecast, and trade
simulation runs replay the signals against historical prices.

Common workflows:

  Register a dataset and ingest a version:
    quantctl dataset create --name "btc-daily"
    quantctl dataset ingest <dataset-id> --uri uploads/prices.csv --ts-column date --target-column close

  Submit a forecast and wait for the result:
    quantctl forecast create --version <version-id> --horizon 14 --window 20
    quantctl forecast result <job-id>

  Generate signals and simulate trades:
    quantctl signal create --forecast <job-id> --strategy <strategy-id>
    quantctl sim create --signal <run-id> --account <account-id>

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    QUANTPLANE_URL      API endpoint (default: http://localhost:6161)
    QUANTPLANE_TOKEN    Tenant API key for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".quantctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".quantctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "QUANTPLANE_VARNAME"
	viper.SetEnvPrefix("QUANTPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.quantctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "QuantPlane Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API key for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
