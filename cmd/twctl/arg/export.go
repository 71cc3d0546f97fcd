package arg

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TabWarden/internal/control"
)

var (
	exportDays int
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent usage as a parquet file",
	Long: `Export per-site usage of the last days as parquet with columns day, domain and seconds.
Examples:
  twctl export --days 30 --out usage.parquet`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if exportDays <= 0 || exportDays > control.MaxDays {
			log.Fatalf("--days must be between 1 and %d", control.MaxDays)
		}
		var data []byte
		mustCall("Export", []interface{}{&data}, int32(exportDays))

		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			log.Fatal("Failed to write export: ", err)
		}
		fmt.Printf("Wrote %d day(s) of usage to %s\n", exportDays, exportOut)
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportDays, "days", 7, "number of days to export, ending today")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "tabwarden.parquet", "output file")
	rootCmd.AddCommand(exportCmd)
}
