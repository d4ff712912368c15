package cmd

import (
	"quantplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Submit and inspect forecast jobs",
}

var forecastCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit a new forecast job",
	Long: `Submit a moving-average forecast job against a READY dataset
version. The job is queued and a worker scores it asynchronously.

Example:
  quantctl forecast create --version dsv_ab12cd34ef56 --horizon 14 --window 20
  quantctl forecast create --version dsv_ab12cd34ef56 --horizon 14 --idempotency-key deploy-2024-06-01`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		versionID, _ := flags.GetString("version")
		horizon, _ := flags.GetInt("horizon")
		window, _ := flags.GetInt("window")
		idemKey, _ := flags.GetString("idempotency-key")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		if versionID == "" {
			cmd.Println("Error: --version is required")
			return
		}
		if horizon <= 0 {
			cmd.Println("Error: --horizon must be positive")
			return
		}

		req := api.CreateForecastRequest{
			DatasetVersionID: versionID,
			ModelType:        "moving_average",
			Horizon:          horizon,
		}
		if window > 0 {
			req.Params = map[string]any{"window": window}
		}

		client := NewClient(url, token)
		result, err := client.CreateForecast(req, idemKey)
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Forecast job submitted!\nID: %s\nStatus: %s\n", result.ForecastJobID, colorizeStatus(result.Status))
	},
}

var forecastStatusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get status of a forecast job",
	Long:  `Retrieve status information for a forecast job, including its current state (PENDING, RUNNING, SUCCEEDED, FAILED), output location and timestamps.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		job, err := client.GetForecast(args[0])
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("%s %sForecast Job%s\n", statusIcon(job.Status), colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sID:%s        %s\n", colorDim, colorReset, job.ForecastJobID)
		cmd.Printf("%sStatus:%s    %s\n", colorDim, colorReset, colorizeStatus(job.Status))
		cmd.Printf("%sModel:%s     %s\n", colorDim, colorReset, job.ModelType)
		cmd.Printf("%sHorizon:%s   %d\n", colorDim, colorReset, job.Horizon)
		cmd.Printf("%sOutput:%s    %s\n", colorDim, colorReset, orDash(job.OutputURI))
		if job.ErrorMessage != nil {
			cmd.Printf("%sError:%s     %s%s%s\n", colorDim, colorReset, colorRed, *job.ErrorMessage, colorReset)
		}
		cmd.Printf("%sCreated:%s   %s\n", colorDim, colorReset, job.CreatedAt)
		cmd.Printf("%sStarted:%s   %s\n", colorDim, colorReset, orDash(job.StartedAt))
		cmd.Printf("%sFinished:%s  %s\n", colorDim, colorReset, orDash(job.FinishedAt))
	},
}

var forecastResultCmd = &cobra.Command{
	Use:   "result [job_id]",
	Short: "Fetch the forecast artifact of a succeeded job",
	Long: `Fetch the JSON forecast artifact of a succeeded job. The controller
answers 409 while the job is still pending or running.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		result, err := client.GetForecastResult(args[0])
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Println(string(result))
	},
}

func init() {
	flags := forecastCreateCmd.Flags()
	flags.StringP("version", "v", "", "Dataset version ID to forecast from (required)")
	flags.Int("horizon", 0, "Number of future points to predict (required)")
	flags.Int("window", 0, "Moving average window (default: 20)")
	flags.String("idempotency-key", "", "Idempotency key for safe resubmission (optional)")

	forecastCmd.AddCommand(forecastCreateCmd)
	forecastCmd.AddCommand(forecastStatusCmd)
	forecastCmd.AddCommand(forecastResultCmd)
	rootCmd.AddCommand(forecastCmd)
}
