package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/filterupdate/pkg/cli"
	"github.com/newtron-network/filterupdate/pkg/settings"
)

func newSettingsCmd() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persistent settings",
		Long: `Manage persistent settings stored in ~/.filterupdate/settings.yaml.

Settings provide defaults for flags that are not given on the command line:
  ` + strings.Join(settings.Keys(), "\n  ") + `

Examples:
  filterupdate settings show
  filterupdate settings set irr_server whois.radb.net
  filterupdate settings set device_user ops
  filterupdate settings set redis_addr localhost:6379
  filterupdate settings clear`,
	}

	settingsCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current settings",
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := settings.Load()
				if err != nil {
					return fmt.Errorf("loading settings: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Settings file: %s\n\n", settings.DefaultSettingsPath())

				t := cli.NewTableTo(out, "SETTING", "VALUE")
				for _, key := range settings.Keys() {
					value, _ := s.Get(key)
					if value == "" {
						value = cli.Dim("(not set)")
					}
					t.Row(key, value)
				}
				t.Flush()
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <setting> <value>",
			Short: "Set a setting value (empty value unsets it)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := settings.Load()
				if err != nil {
					s = &settings.Settings{}
				}
				if err := s.Set(args[0], args[1]); err != nil {
					return fmt.Errorf("%w (valid: %s)", err, strings.Join(settings.Keys(), ", "))
				}
				if err := s.Save(); err != nil {
					return fmt.Errorf("saving settings: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s set to: %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <setting>",
			Short: "Get a setting value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := settings.Load()
				if err != nil {
					return fmt.Errorf("loading settings: %w", err)
				}
				value, err := s.Get(args[0])
				if err != nil {
					return err
				}
				if value == "" {
					value = "(not set)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Clear all settings",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := (&settings.Settings{}).Save(); err != nil {
					return fmt.Errorf("saving settings: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All settings cleared.")
				return nil
			},
		},
	)
	return settingsCmd
}
