package arg

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TabWarden/internal/activity"
	"github.com/SoarinFerret/TabWarden/internal/surface"
)

type daemonStatus struct {
	Tracker activity.State `json:"tracker"`
	Hub     surface.Status `json:"hub"`
}

func fetchStatus() (daemonStatus, error) {
	var st daemonStatus
	result, err := callJSON("GetStatus")
	if err != nil {
		return st, err
	}
	err = json.Unmarshal([]byte(result), &st)
	return st, err
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if TabWarden is running and what it is accounting",
	Run: func(cmd *cobra.Command, args []string) {
		st, err := fetchStatus()
		if err != nil {
			log.Fatal("Failed to get status: ", err)
		}

		fmt.Println("TabWarden Status: running")
		fmt.Printf("Browsers connected: %d (%d surfaces)\n", st.Hub.Clients, st.Hub.Surfaces)
		fmt.Printf("User state: %s\n", st.Hub.Idle)
		if st.Tracker.Domain.IsZero() {
			fmt.Println("Tracking: nothing")
			return
		}
		fmt.Printf("Tracking: %s (last tick %s ago)\n",
			st.Tracker.Domain, time.Since(st.Tracker.LastTick).Round(time.Second))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
