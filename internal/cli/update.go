package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-index files that changed since the last scan",
	Long: `Update classifies every tracked file as deleted, modified or
unchanged, discovers new files under the tracked roots, and brings the
database current. A file counts as modified when its mtime is newer
than the last scan or its extractor has been upgraded since.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := requireDatabase(cfg)
		if err != nil {
			return err
		}

		changed, err := db.Update()
		if err != nil {
			return err
		}
		if !changed {
			if !quiet {
				fmt.Println("no changes")
			}
			return nil
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
	rootCmd.AddCommand(updateCmd)
}
