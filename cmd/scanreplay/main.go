package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aukilabs/boxscan/replay"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "scanreplay",
	Short: "Replays recorded object scans offline",
	Long: `scanreplay drives the box scan engine with recorded tracking sessions.
A recorded session is the list of messages a tracking client sent to the
server, one JSON envelope per line.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logs.Encoder = json.Marshal
		logs.SetLevel(logs.ParseLevel("warning"))
		if verbose {
			logs.SetLevel(logs.ParseLevel("debug"))
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine debug messages")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printResult(w io.Writer, res replay.Result) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
