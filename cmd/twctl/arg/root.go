package arg

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TabWarden/internal/ipc"
)

var systemBus bool

var rootCmd = &cobra.Command{
	Use:   "twctl",
	Short: "twctl is the command line tool for TabWarden",
	Long: `twctl talks to the tabwardend daemon over D-Bus.
Use it to inspect today's browsing time and manage daily limits.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&systemBus, "system", false, "use the system bus instead of the session bus")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// call invokes a control method and stores its reply into out.
func call(method string, out []interface{}, args ...interface{}) error {
	conn, obj, err := ipc.Connect(systemBus)
	if err != nil {
		return err
	}
	defer conn.Close()
	return obj.Call(ipc.InterfaceName+"."+method, 0, args...).Store(out...)
}

// mustCall is call for commands, which exit on failure.
func mustCall(method string, out []interface{}, args ...interface{}) {
	if err := call(method, out, args...); err != nil {
		log.Fatalf("Failed to call %s: %v", method, err)
	}
}

// callJSON fetches a method's JSON string reply.
func callJSON(method string, args ...interface{}) (string, error) {
	var result string
	err := call(method, []interface{}{&result}, args...)
	return result, err
}
