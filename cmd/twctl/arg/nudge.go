package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var nudgeCmd = &cobra.Command{
	Use:       "nudge <on|off>",
	Short:     "Turn limit nudges on or off",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	Run: func(cmd *cobra.Command, args []string) {
		enabled := args[0] == "on"
		mustCall("SetNudgeEnabled", nil, enabled)
		fmt.Printf("Nudges turned %s\n", args[0])
	},
}

var globalCmd = &cobra.Command{
	Use:   "global <hours> [minutes]",
	Short: "Set the daily limit across all sites (0 disables it)",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		hours, minutes, err := parseHoursMinutes(args)
		if err != nil {
			log.Fatal(err)
		}
		mustCall("SetGlobalLimit", nil, int32(hours), int32(minutes))
		fmt.Printf("Global daily limit set to %dh %dm\n", hours, minutes)
	},
}

func init() {
	rootCmd.AddCommand(nudgeCmd)
	rootCmd.AddCommand(globalCmd)
}
