package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/banksim/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage configuration files for the simulation.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  banksim config init -o banksim.yaml
  banksim config validate banksim.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  banksim --config %s run\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "banksim.yaml", "output config file path")

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(args[0])
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", args[0])
			fmt.Fprintf(out, "  Bank: $%.2f starting cash, deposits at %.2f%%\n", cfg.Bank.StartingBalance, cfg.Bank.DepositRate*100)
			fmt.Fprintf(out, "  Storage: %s (%s)\n", cfg.Storage.Driver, cfg.Storage.Path)
			fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
			fmt.Fprintf(out, "  Tick: %s\n", cfg.Simulation.Tick)
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

const version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "banksim version %s\n", version)
		},
	}
}
