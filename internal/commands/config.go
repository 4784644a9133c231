package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oszuidwest/zwfm-audioctl/internal/config"
)

const redacted = "********"

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(newConfigInitCommand(a), newConfigShowCommand(a))
	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force, generateKey bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.New(a.configPath)
			if generateKey {
				key, err := config.GenerateAPIKey()
				if err != nil {
					return fmt.Errorf("generate API key: %w", err)
				}
				cfg.System.APIKey = key
			}

			if err := cfg.Create(force); err != nil {
				if errors.Is(err, config.ErrExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			_, err := fmt.Fprintln(a.Stdout, "wrote", cfg.Path())
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&generateKey, "generate-api-key", false, "set a random API key")
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.System.APIKey != "" {
				cfg.System.APIKey = redacted
			}
			if cfg.Notifications.Email.ClientSecret != "" {
				cfg.Notifications.Email.ClientSecret = redacted
			}
			return a.printer().json(cfg)
		},
	}
}
