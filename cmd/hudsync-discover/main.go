// Command hudsync-discover broadcasts a UDP autodiscovery ping and prints
// every server that answered within the collection window.
package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cascadelabs/hudsync/pkg/discovery"
)

var rootCmd = &cobra.Command{
	Use:   "hudsync-discover",
	Short: "Broadcast a UDP autodiscovery ping and list responders",
	RunE:  run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	replies, err := discovery.Discover()
	if err != nil {
		return fmt.Errorf("hudsync-discover: %w", err)
	}

	if len(replies) == 0 {
		fmt.Println("no responders found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"IpAddr", "Lang", "Version"})
	for _, r := range replies {
		table.Append([]string{
			fmt.Sprint(r["IpAddr"]),
			fmt.Sprint(r["lang"]),
			fmt.Sprint(r["version"]),
		})
	}
	table.Render()
	return nil
}
