package arg

import (
	"fmt"
	"strconv"
)

// parseHoursMinutes reads "<hours> [minutes]" command arguments.
func parseHoursMinutes(args []string) (int, int, error) {
	hours, err := strconv.Atoi(args[0])
	if err != nil || hours < 0 {
		return 0, 0, fmt.Errorf("invalid hours %q", args[0])
	}
	minutes := 0
	if len(args) > 1 {
		minutes, err = strconv.Atoi(args[1])
		if err != nil || minutes < 0 {
			return 0, 0, fmt.Errorf("invalid minutes %q", args[1])
		}
	}
	return hours, minutes, nil
}
