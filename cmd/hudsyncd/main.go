// Command hudsyncd is the server role: it boots a Model from the fixed
// startup template, optionally answers UDP autodiscovery pings, and
// accepts one client to stream deltas to.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cascadelabs/hudsync/internal/applog"
	"github.com/cascadelabs/hudsync/internal/config"
	"github.com/cascadelabs/hudsync/internal/hudserver"
	"github.com/cascadelabs/hudsync/pkg/discovery"
	"github.com/cascadelabs/hudsync/pkg/model"
	"github.com/cascadelabs/hudsync/pkg/nativecodec"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "hudsyncd",
	Short: "Mirror live state to a single LAN client over hudsync's TCP protocol",
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
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return fmt.Errorf("hudsyncd: open log file: %w", err)
		}
		applog.AddLogger("file", f, level, false)
	}

	overrides, err := config.LoadTemplateOverrides(cfg.TemplatePath)
	if err != nil {
		return err
	}

	m := model.New()
	records, err := nativecodec.Flatten(config.MergeOverrides(overrides))
	if err != nil {
		return fmt.Errorf("hudsyncd: flatten startup template: %w", err)
	}
	m.Load(records)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.DiscoveryEnabled {
		responder, err := discovery.NewResponder(map[string]interface{}{
			"lang":    "en",
			"version": "1.0",
		})
		if err != nil {
			applog.Warn("discovery responder disabled: %v", err)
		} else {
			go func() {
				if err := responder.Serve(); err != nil {
					applog.Warn("discovery responder stopped: %v", err)
				}
			}()
			go func() {
				<-ctx.Done()
				responder.Close()
			}()
		}
	}

	srv := hudserver.New(m, hudserver.HandshakeInfo{Lang: "en", Version: "1.0"})
	applog.Info("listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("hudsyncd: %w", err)
	}
	return nil
}
