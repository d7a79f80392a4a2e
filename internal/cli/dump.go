package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/symdex/internal/extract"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [table]",
	Short: "Print a table (or every table) sorted by symbol name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && !extract.Table(args[0]).Valid() {
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

		if len(args) == 1 {
			recs, err := db.DumpTable(extract.Table(args[0]))
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("%s\t%s:%d\n", r.QualifiedName(), r.File, r.Line)
			}
			return nil
		}

		all := db.DumpAll()
		for _, t := range extract.Tables {
			recs, ok := all[t]
			if !ok {
				continue
			}
			fmt.Printf("== %s\n", t)
			for _, r := range recs {
				fmt.Printf("%s\t%s:%d\n", r.QualifiedName(), r.File, r.Line)
			}
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print tracked-file and per-table record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := requireDatabase(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("files\t%d\n", len(db.TrackedFiles()))
		for _, s := range db.Summary() {
			fmt.Printf("%s\t%d\n", s.Table, s.Records)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(summaryCmd)
}
