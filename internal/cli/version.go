package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/symdex/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the symdex version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", version.Name, version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
