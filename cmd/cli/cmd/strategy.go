package cmd

import (
	"quantplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage threshold strategies",
}

var strategyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new threshold strategy",
	Long: `Register a threshold strategy. Signal runs compare each forecast
point against the last observed value: BUY when the prediction is at
least buy-above percent higher, SELL when it is at least sell-below
percent lower, HOLD otherwise.

Example:
  quantctl strategy create --name "five-pct-band" --buy-above 0.05 --sell-below 0.05`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		buyAbove, _ := flags.GetFloat64("buy-above")
		sellBelow, _ := flags.GetFloat64("sell-below")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		client := NewClient(url, token)
		result, err := client.CreateStrategy(api.CreateStrategyRequest{
			Name:         name,
			BuyAbovePct:  buyAbove,
			SellBelowPct: sellBelow,
		})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Strategy created!\nID: %s\nName: %s\n", result.StrategyID, result.Name)
	},
}

var strategyShowCmd = &cobra.Command{
	Use:   "show [strategy_id]",
	Short: "Show a strategy's thresholds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		s, err := client.GetStrategy(args[0])
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("ID: %s\nName: %s\nBuy above: %.4f\nSell below: %.4f\nCreated: %s\n",
			s.StrategyID, s.Name, s.BuyAbovePct, s.SellBelowPct, s.CreatedAt)
	},
}

func init() {
	flags := strategyCreateCmd.Flags()
	flags.StringP("name", "n", "", "Name of the strategy (required)")
	flags.Float64("buy-above", 0.05, "BUY threshold as a fraction above the last observed value")
	flags.Float64("sell-below", 0.05, "SELL threshold as a fraction below the last observed value")

	strategyCmd.AddCommand(strategyCreateCmd)
	strategyCmd.AddCommand(strategyShowCmd)
	rootCmd.AddCommand(strategyCmd)
}
