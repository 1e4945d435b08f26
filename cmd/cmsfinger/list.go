package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/cmsfinger/internal/config"
	"github.com/nao1215/cmsfinger/internal/fingerprint"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the fingerprints a scan would use",
		Long: `List prints the built-in fingerprints followed by those loaded from rule
files given with -f or named in the configuration file.

Examples:
  # Show built-in fingerprints
  cmsfinger list

  # Include a rule file
  cmsfinger list -f rules.yaml`,
		Args: cobra.NoArgs,
		RunE: runListCmd,
	}

	cmd.Flags().StringArrayP("fingerprints", "f", nil,
		"YAML fingerprint rule file (repeatable)")
	cmd.Flags().String("config", "",
		"Configuration file path (default: .cmsfinger in current or home directory)")

	return cmd
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, _ []string) error {
	files, err := ruleFilesFromFlags(cmd)
	if err != nil {
		return err
	}

	_, loaded, err := loadRegistry(files)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	builtin := fingerprint.Default().Names()
	fmt.Fprintf(out, "Built-in fingerprints (%d):\n", len(builtin))
	for _, name := range builtin {
		fmt.Fprintf(out, "  %s\n", name)
	}
	for _, rf := range loaded {
		fmt.Fprintf(out, "\nFrom %s (%d):\n", rf.Path, len(rf.Names))
		for _, name := range rf.Names {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}

// ruleFilesFromFlags returns the rule files of the config file followed by
// those given with -f.
func ruleFilesFromFlags(cmd *cobra.Command) ([]string, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	if found := config.FindConfigFile(configPath); found != "" {
		cf, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cf.Apply(cfg)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	files, err := cmd.Flags().GetStringArray("fingerprints")
	if err != nil {
		return nil, err
	}
	return append(cfg.FingerprintFiles, files...), nil
}
