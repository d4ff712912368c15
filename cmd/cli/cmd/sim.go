package cmd

import (
	"quantplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Create and inspect trade simulation runs",
}

var simCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a trade simulation run from a succeeded signal run",
	Long: `Replay the signals of a succeeded signal run against historical
prices, starting from the account's initial cash.

Example:
  quantctl sim create --signal sg_ab12cd34ef56 --account acct_9876fe54dc32`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		signalID, _ := flags.GetString("signal")
		accountID, _ := flags.GetString("account")
		execModel, _ := flags.GetString("exec-model")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		if signalID == "" || accountID == "" {
			cmd.Println("Error: --signal and --account are required")
			return
		}

		client := NewClient(url, token)
		result, err := client.CreateSimRun(api.CreateSimRunRequest{
			SignalRunID: signalID,
			AccountID:   accountID,
			ExecModel:   execModel,
		})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Simulation run created!\nID: %s\nStatus: %s\n", result.TradeSimRunID, colorizeStatus(result.Status))
	},
}

var simStatusCmd = &cobra.Command{
	Use:   "status [run_id]",
	Short: "Get status of a trade simulation run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		run, err := client.GetSimRun(args[0])
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("%s %sTrade Simulation Run%s\n", statusIcon(run.Status), colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sID:%s        %s\n", colorDim, colorReset, run.TradeSimRunID)
		cmd.Printf("%sSignal:%s    %s\n", colorDim, colorReset, run.SignalRunID)
		cmd.Printf("%sAccount:%s   %s\n", colorDim, colorReset, run.AccountID)
		cmd.Printf("%sExec:%s      %s\n", colorDim, colorReset, run.ExecModel)
		cmd.Printf("%sStatus:%s    %s\n", colorDim, colorReset, colorizeStatus(run.Status))
		cmd.Printf("%sOutput:%s    %s\n", colorDim, colorReset, orDash(run.OutputURI))
		if run.ErrorMessage != nil {
			cmd.Printf("%sError:%s     %s%s%s\n", colorDim, colorReset, colorRed, *run.ErrorMessage, colorReset)
		}
		if len(run.Result) > 0 {
			cmd.Printf("%sResult:%s    %s\n", colorDim, colorReset, string(run.Result))
		}
	},
}

func init() {
	flags := simCreateCmd.Flags()
	flags.StringP("signal", "s", "", "Succeeded signal run ID (required)")
	flags.StringP("account", "a", "", "Simulation account ID (required)")
	flags.String("exec-model", "", "Execution model (default: market)")

	simCmd.AddCommand(simCreateCmd)
	simCmd.AddCommand(simStatusCmd)
	rootCmd.AddCommand(simCmd)
}
