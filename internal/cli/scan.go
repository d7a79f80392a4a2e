package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanExcludes []string

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Add root paths and index their files",
	Long: `Scan registers root paths with the database and extracts every
eligible file under them. Without arguments the configured default
paths are scanned. Repeating a scan is idempotent: only files that
newly appeared on disk are processed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}

		if err := db.AddExcludes(scanExcludes); err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			paths = cfg.Paths
		}
		if err := db.AddPaths(paths); err != nil {
			return err
		}

		if err := saveDatabase(db, cfg); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("tracking %d files\n", len(db.TrackedFiles()))
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringArrayVarP(&scanExcludes, "exclude", "x", nil, "exclude pattern (repeatable)")
	rootCmd.AddCommand(scanCmd)
}
