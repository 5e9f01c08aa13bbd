package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devcamper/internal/client"
	"github.com/alfredjeanlab/devcamper/internal/ui"
)

var (
	apiURL     string
	apiToken   string
	jsonOutput bool

	apiClient client.DevcamperClient
)

func defaultAPIURL() string {
	if s := os.Getenv("DEVCAMPER_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:5000"
}

func defaultAPIToken() string {
	if s := os.Getenv("DEVCAMPER_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:           "devcamper <command>",
	Short:         "Bootcamp directory API server and client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetColor(ui.ShouldUseColor())
		apiClient = client.NewHTTPClient(apiURL, apiToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if apiClient != nil {
			apiClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", defaultAPIURL(), "API server URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", defaultAPIToken(), "bearer token for private routes")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Data:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Data
	rootCmd.AddCommand(bootcampsCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: ")+err.Error())
		os.Exit(1)
	}
}
