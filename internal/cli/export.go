package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/symdex/internal/export"
	"github.com/mvp-joe/symdex/internal/extract"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the database as a ctags or cscope file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := requireDatabase(cfg)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		switch exportFormat {
		case "ctags":
			return export.WriteCtags(w, db.Table(extract.TableDefs))
		case "cscope":
			return export.WriteCscope(w, db)
		default:
			return fmt.Errorf("unknown export format %q (want ctags or cscope)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "ctags", "export format: ctags or cscope")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
