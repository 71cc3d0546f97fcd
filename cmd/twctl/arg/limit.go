package arg

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
	"github.com/SoarinFerret/TabWarden/internal/settings"
)

var limitCmd = &cobra.Command{
	Use:   "limit",
	Short: "Manage per-site daily limits",
	Long:  `Add, list, or remove daily time limits for individual sites`,
}

var limitAddCmd = &cobra.Command{
	Use:   "add <site> [minutes]",
	Short: "Add or change the daily limit for a site",
	Long: `Add a daily limit for a site. The site may be given as a URL.
Without minutes the limit defaults to ` + strconv.Itoa(control.DefaultLimitMinutes) + ` minutes.
Examples:
  twctl limit add reddit.com 45
  twctl limit add https://www.youtube.com/feed`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		minutes := 0
		if len(args) > 1 {
			var err error
			minutes, err = strconv.Atoi(args[1])
			if err != nil {
				log.Fatal("Invalid minutes (must be a number): ", err)
			}
		}

		var d string
		mustCall("AddLimit", []interface{}{&d}, args[0], int32(minutes))
		if minutes <= 0 {
			minutes = control.DefaultLimitMinutes
		}
		fmt.Printf("Limit added for %s: %d minute(s) per day\n", d, minutes)
	},
}

var limitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured limits",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		result, err := callJSON("GetSettings")
		if err != nil {
			log.Fatal("Failed to get settings: ", err)
		}
		var st settings.Settings
		if err := json.Unmarshal([]byte(result), &st); err != nil {
			log.Fatal("Failed to parse response: ", err)
		}

		fmt.Printf("Nudges: %s\n", onOff(st.NudgeEnabled))
		if st.GlobalDailyLimit > 0 {
			fmt.Printf("Global limit: %s\n", ledger.FormatSeconds(st.GlobalDailyLimit))
		} else {
			fmt.Println("Global limit: none")
		}

		if len(st.Limits) == 0 {
			fmt.Println("No site limits configured")
			return
		}
		domains := make([]domain.Domain, 0, len(st.Limits))
		for d := range st.Limits {
			domains = append(domains, d)
		}
		sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
		fmt.Println("\nSite limits:")
		for _, d := range domains {
			fmt.Printf("  %-30s %s\n", d, ledger.FormatSeconds(st.Limits[d]))
		}
	},
}

var limitRemoveCmd = &cobra.Command{
	Use:     "remove <site>",
	Aliases: []string{"rm"},
	Short:   "Remove the limit for a site",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var d string
		mustCall("RemoveLimit", []interface{}{&d}, args[0])
		fmt.Printf("Limit removed for %s\n", d)
	},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	limitCmd.AddCommand(limitAddCmd)
	limitCmd.AddCommand(limitListCmd)
	limitCmd.AddCommand(limitRemoveCmd)
	rootCmd.AddCommand(limitCmd)
}
