package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/symdex/internal/extract"
)

var queryNoUpdate bool

var queryCmd = &cobra.Command{
	Use:   "query <table> <key>",
	Short: "Fuzzy-search one fact table",
	Long: `Query ranks the records of one table (defs, calls, assigns, imports,
ends) against a search key. The key is a literal or a regular
expression; only near-best matches are printed. Unless --no-update is
given the database is brought current first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := extract.Table(args[0])
		if !table.Valid() {
			return fmt.Errorf("unknown table %q (want one of %v)", args[0], extract.Tables)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := requireDatabase(cfg)
		if err != nil {
			return err
		}

		if !queryNoUpdate {
			changed, err := db.Update()
			if err != nil {
				return err
			}
			if changed {
				if err := saveDatabase(db, cfg); err != nil {
					return err
				}
			}
		}

		recs, err := db.Query(table, args[1])
		if err != nil {
			return err
		}
		for _, r := range recs {
			fmt.Printf("%s:%d: %s\n", r.File, r.Line, r.QualifiedName())
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVarP(&queryNoUpdate, "no-update", "n", false, "query the snapshot as-is, without rescanning")
	rootCmd.AddCommand(queryCmd)
}
