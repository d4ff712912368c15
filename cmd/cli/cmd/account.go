package cmd

import (
	"quantplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage simulation accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new simulation account",
	Long: `Register a simulation account holding the starting cash that trade
simulation runs replay against.

Example:
  quantctl account create --name "paper-1" --cash 10000`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		cash, _ := flags.GetFloat64("cash")
		currency, _ := flags.GetString("currency")

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
		if cash <= 0 {
			cmd.Println("Error: --cash must be positive")
			return
		}

		client := NewClient(url, token)
		result, err := client.CreateAccount(api.CreateAccountRequest{
			Name:        name,
			InitialCash: cash,
			Currency:    currency,
		})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Account created!\nID: %s\nName: %s\n", result.AccountID, result.Name)
	},
}

func init() {
	flags := accountCreateCmd.Flags()
	flags.StringP("name", "n", "", "Name of the account (required)")
	flags.Float64("cash", 0, "Initial cash balance (required)")
	flags.String("currency", "", "Account currency (default: USD)")

	accountCmd.AddCommand(accountCreateCmd)
	rootCmd.AddCommand(accountCmd)
}
