// Package main provides the osucodec command line tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"osucodec/internal/config"
)

var (
	configPath string
	dbPath     string

	fileCfg config.FileConfig
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("osucodec: ")
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "osucodec",
		Short:         "Decode, encode and round-trip check .osu charts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fileCfg = cfg
			applyStringConfig(cmd, "db", &dbPath, fileCfg.Store.Path)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "check history database")

	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Write the default config file if none exists and print its path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err != nil {
				if !os.IsNotExist(err) {
					return fmt.Errorf("failed to stat config: %w", err)
				}
				if err := writeFileAll(configPath, []byte(config.DefaultTemplate())); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), configPath)
			return err
		},
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
