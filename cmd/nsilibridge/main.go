// NSILI bridge
// Serves a catalog to STANAG 4559 clients over gRPC
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "nsilibridge",
	Short: "NSILI bridge between a metadata catalog and STANAG 4559 clients",
	Long: `nsilibridge exposes a metadata catalog as an NSILI library.

Queries arrive as BQS or filter trees, are translated for the catalog and
the returned records are converted to product DAGs. Standing queries poll
the catalog on a schedule and notify registered callbacks.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nsilibridge %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, bqsCmd, dagCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
