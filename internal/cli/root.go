// Package cli wires the symdex commands. All indexing logic lives in
// the internal/database and internal/extract packages; commands here
// only parse flags, load configuration, and print.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgDir string
	dbPath string
	quiet  bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "symdex",
	Short: "symdex - a symbol fact database for source trees",
	Long: `Symdex indexes a multi-language source tree into a database of symbol
facts (definitions, calls, assignments, imports), keeps the database
incrementally current as files change, and exposes it through fuzzy
queries and ctags/cscope exports.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
// Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgDir, "dir", "C", "", "project directory (default is the working directory)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
}
