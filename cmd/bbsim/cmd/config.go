package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Options file operations",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Print the effective options as TOML",
	Long: `Prints the options the other commands would use, defaults merged with
--config and flags, as a TOML file that --config accepts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		return board.WriteOptions(cmd.OutOrStdout(), opts)
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate an options file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := board.LoadOptions(args[0])
		if err != nil {
			return err
		}
		repo, err := loadRepository()
		if err != nil {
			return err
		}
		if _, err := repo.Lookup(opts.Layout); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: layout %s, theme %s\n", args[0], opts.Layout, opts.Theme)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}
