package arg

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

var dayFlag string

func fetchDay(day string) (control.DayStats, error) {
	var stats control.DayStats
	var result string
	var err error
	if day == "" {
		result, err = callJSON("GetToday")
	} else {
		result, err = callJSON("GetDay", day)
	}
	if err != nil {
		return stats, err
	}
	err = json.Unmarshal([]byte(result), &stats)
	return stats, err
}

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"t"},
	Short:   "Show time spent per site today",
	Run: func(cmd *cobra.Command, args []string) {
		stats, err := fetchDay(dayFlag)
		if err != nil {
			log.Fatal("Failed to get usage: ", err)
		}
		printDay(stats)
	},
}

func printDay(stats control.DayStats) {
	title := fmt.Sprintf("Usage for %s", stats.Day)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))

	if len(stats.Sites) == 0 {
		fmt.Println("No browsing recorded")
		return
	}
	for _, s := range stats.Sites {
		line := fmt.Sprintf("  %-30s %12s", s.Domain, ledger.FormatSeconds(s.Seconds))
		if s.Limit > 0 {
			line += fmt.Sprintf("  limit %s (%.0f%%)", ledger.FormatSeconds(s.Limit), s.Percent)
		}
		fmt.Println(line)
	}
	fmt.Printf("\nTotal: %s", ledger.FormatSeconds(stats.Total))
	if stats.GlobalLimit > 0 {
		fmt.Printf(" of %s", ledger.FormatSeconds(stats.GlobalLimit))
	}
	fmt.Println()
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show daily totals for the last seven days",
	Run: func(cmd *cobra.Command, args []string) {
		result, err := callJSON("GetWeek")
		if err != nil {
			log.Fatal("Failed to get usage: ", err)
		}
		var week []control.DayTotal
		if err := json.Unmarshal([]byte(result), &week); err != nil {
			log.Fatal("Failed to parse response: ", err)
		}

		var max int64
		for _, d := range week {
			if d.Total > max {
				max = d.Total
			}
		}
		for _, d := range week {
			fmt.Printf("%s  %-20s %s\n", d.Day, bar(d.Total, max, 20), ledger.FormatSeconds(d.Total))
		}
	},
}

func bar(value, max int64, width int) string {
	filled := 0
	if max > 0 {
		filled = int(value * int64(width) / max)
	}
	return strings.Repeat("#", filled)
}

func init() {
	todayCmd.Flags().StringVar(&dayFlag, "day", "", "show another day (YYYY-MM-DD)")
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(weekCmd)
}
