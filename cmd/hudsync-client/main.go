// Command hudsync-client connects to a hudsyncd server, mirrors its Model
// locally, and prints a table of top-level sections after every update
// batch it applies. It is a debugging aid, not the presentation layer the protocol
// spec explicitly leaves external.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cascadelabs/hudsync/internal/applog"
	"github.com/cascadelabs/hudsync/internal/config"
	"github.com/cascadelabs/hudsync/internal/hudclient"
	"github.com/cascadelabs/hudsync/pkg/model"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "hudsync-client <server-addr>",
	Short: "Connect to a hudsyncd server and mirror its Model",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	config.BindFlags(rootCmd, v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	level, err := applog.LevelFromString(cfg.LogLevel)
	if err != nil {
		return err
	}
	applog.AddLogger("stderr", os.Stderr, level, true)

	m := model.New()
	cli := hudclient.New(m)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	m.Register(model.KindUpdate, func(changed []model.Id) {
		printSections(m)
	})

	addr := args[0]
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(config.TCPPort))
	}

	applog.Info("connecting to %s", addr)
	if err := cli.Run(ctx, addr); err != nil {
		return fmt.Errorf("hudsync-client: %w", err)
	}
	return nil
}

func printSections(m *model.Model) {
	root, err := m.GetItem(0)
	if err != nil {
		return
	}
	dict, ok := root.AsDict()
	if !ok {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Section", "Id", "Kind"})
	for name, id := range dict {
		v, err := m.GetItem(id)
		if err != nil {
			continue
		}
		table.Append([]string{name, fmt.Sprintf("%d", id), v.Kind().String()})
	}
	table.Render()
}
