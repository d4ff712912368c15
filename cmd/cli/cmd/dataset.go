package cmd

import (
	"quantplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage datasets and their versions",
}

var datasetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new dataset",
	Long: `Register a new named dataset. Data arrives later as immutable
versions via 'quantctl dataset ingest'.

Example:
  quantctl dataset create --name "btc-daily"`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")

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
		result, err := client.CreateDataset(api.CreateDatasetRequest{Name: name})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Dataset created!\nID: %s\nName: %s\n", result.DatasetID, result.Name)
	},
}

var datasetIngestCmd = &cobra.Command{
	Use:   "ingest [dataset_id]",
	Short: "Ingest a new version of a dataset",
	Long: `Ingest a new immutable version of a dataset from an uploaded raw
file. The version starts in VALIDATING and a worker normalizes and
profiles it asynchronously.

Example:
  quantctl dataset ingest ds_ab12cd34ef56 --uri uploads/prices.csv --ts-column date --target-column close`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		datasetID := args[0]
		rawURI, _ := cmd.Flags().GetString("uri")
		tsColumn, _ := cmd.Flags().GetString("ts-column")
		targetColumn, _ := cmd.Flags().GetString("target-column")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		if rawURI == "" {
			cmd.Println("Error: --uri is required")
			return
		}
		if tsColumn == "" || targetColumn == "" {
			cmd.Println("Error: --ts-column and --target-column are required")
			return
		}

		client := NewClient(url, token)
		result, err := client.IngestVersion(datasetID, api.IngestVersionRequest{
			RawURI: rawURI,
			Mapping: api.ColumnMapping{
				Timestamp: tsColumn,
				Target:    targetColumn,
			},
		})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Version ingested!\nID: %s\nStatus: %s\n", result.DatasetVersionID, colorizeStatus(result.Status))
	},
}

var datasetVersionCmd = &cobra.Command{
	Use:   "version [dataset_id] [version_id]",
	Short: "Get status of a dataset version",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the QUANTPLANE_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		v, err := client.GetDatasetVersion(args[0], args[1])
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("%s %sDataset Version%s\n", statusIcon(v.Status), colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sID:%s         %s\n", colorDim, colorReset, v.DatasetVersionID)
		cmd.Printf("%sDataset:%s    %s\n", colorDim, colorReset, v.DatasetID)
		cmd.Printf("%sStatus:%s     %s\n", colorDim, colorReset, colorizeStatus(v.Status))
		cmd.Printf("%sChecksum:%s   %s\n", colorDim, colorReset, orDash(v.Checksum))
		cmd.Printf("%sProcessed:%s  %s\n", colorDim, colorReset, orDash(v.ProcessedURI))
		if len(v.Profile) > 0 {
			cmd.Printf("%sProfile:%s    %s\n", colorDim, colorReset, string(v.Profile))
		}
		if v.ErrorMessage != nil {
			cmd.Printf("%sError:%s      %s%s%s\n", colorDim, colorReset, colorRed, *v.ErrorMessage, colorReset)
		}
	},
}

// printClientError renders API errors uniformly across subcommands.
func printClientError(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
	} else {
		cmd.Printf("Error: %v\n", err)
	}
}

func init() {
	datasetCreateCmd.Flags().StringP("name", "n", "", "Name of the dataset (required)")

	flags := datasetIngestCmd.Flags()
	flags.String("uri", "", "Location of the uploaded raw CSV (required)")
	flags.String("ts-column", "", "Raw column holding the timestamp (required)")
	flags.String("target-column", "", "Raw column holding the target value (required)")

	datasetCmd.AddCommand(datasetCreateCmd)
	datasetCmd.AddCommand(datasetIngestCmd)
	datasetCmd.AddCommand(datasetVersionCmd)
	rootCmd.AddCommand(datasetCmd)
}
