package cmd

import (
	"quantplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Create and inspect signal runs",
}

var signalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a signal run from a succeeded forecast",
	Long: `Apply a threshold strategy to a succeeded forecast job, producing
one BUY, SELL or HOLD signal per forecast point.

Example:
  quantctl signal create --forecast fc_ab12cd34ef56 --strategy st_9876fe54dc32`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		forecastID, _ := flags.GetString("forecast")
		strategyID, _ := flags.GetString("strategy")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		if forecastID == "" || strategyID == "" {
			cmd.Println("Error: --forecast and --strategy are required")
			return
		}

		client := NewClient(url, token)
		result, err := client.CreateSignalRun(api.CreateSignalRunRequest{
			ForecastJobID: forecastID,
			StrategyID:    strategyID,
		})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Signal run created!\nID: %s\nStatus: %s\n", result.SignalRunID, colorizeStatus(result.Status))
	},
}

var signalStatusCmd = &cobra.Command{
	Use:   "status [run_id]",
	Short: "Get status of a signal run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		run, err := client.GetSignalRun(args[0])
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("%s %sSignal Run%s\n", statusIcon(run.Status), colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sID:%s        %s\n", colorDim, colorReset, run.SignalRunID)
		cmd.Printf("%sForecast:%s  %s\n", colorDim, colorReset, run.ForecastJobID)
		cmd.Printf("%sStrategy:%s  %s\n", colorDim, colorReset, run.StrategyID)
		cmd.Printf("%sStatus:%s    %s\n", colorDim, colorReset, colorizeStatus(run.Status))
		cmd.Printf("%sOutput:%s    %s\n", colorDim, colorReset, orDash(run.OutputURI))
		if run.ErrorMessage != nil {
			cmd.Printf("%sError:%s     %s%s%s\n", colorDim, colorReset, colorRed, *run.ErrorMessage, colorReset)
		}
	},
}

func init() {
	flags := signalCreateCmd.Flags()
	flags.StringP("forecast", "f", "", "Succeeded forecast job ID (required)")
	flags.StringP("strategy", "s", "", "Strategy ID (required)")

	signalCmd.AddCommand(signalCreateCmd)
	signalCmd.AddCommand(signalStatusCmd)
	rootCmd.AddCommand(signalCmd)
}
