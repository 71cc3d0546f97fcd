package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var confirmClear bool

var resetTodayCmd = &cobra.Command{
	Use:   "reset-today",
	Short: "Clear the time recorded today",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		mustCall("ResetToday", nil)
		fmt.Println("Today's data cleared")
	},
}

var clearAllCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Delete all recorded time and reset every setting",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !confirmClear {
			log.Fatal("Refusing to clear all data without --yes")
		}
		mustCall("ClearAll", nil)
		fmt.Println("All data cleared")
	},
}

func init() {
	clearAllCmd.Flags().BoolVar(&confirmClear, "yes", false, "confirm deleting everything")
	rootCmd.AddCommand(resetTodayCmd)
	rootCmd.AddCommand(clearAllCmd)
}
