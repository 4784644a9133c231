package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oszuidwest/zwfm-audioctl/internal/version"
)

func newVersionCommand(a *app) *cobra.Command {
	var check bool
	checker := version.NewChecker()

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if check {
				if err := checker.Check(cmd.Context()); err != nil {
					return fmt.Errorf("check for updates: %w", err)
				}
			}
			info := checker.Info()

			if a.output == outputJSON {
				return a.printer().json(info)
			}
			fmt.Fprintf(a.Stdout, "audioctl %s\n", info.Current)
			if info.Commit != "" {
				fmt.Fprintf(a.Stdout, "commit:  %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(a.Stdout, "built:   %s\n", info.BuildTime)
			}
			if check {
				switch {
				case info.UpdateAvail:
					fmt.Fprintf(a.Stdout, "update available: %s\n", info.Latest)
				case info.Latest != "":
					fmt.Fprintf(a.Stdout, "up to date (latest %s)\n", info.Latest)
				default:
					fmt.Fprintln(a.Stdout, "no release information")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
