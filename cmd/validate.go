package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fenrow/prehook/internal/hookcfg"
	"github.com/fenrow/prehook/internal/policy"
	"github.com/fenrow/prehook/pkg/exitcode"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the hook document against schema and pin policy",
		Long: `Validate checks the hook document three ways: structural validation
against the document schema, semantic validation (pinned revs, complete
local hooks, compilable patterns), and the rego pin policy. Nothing is
fetched or executed.`,
		RunE: runValidate,
	}

	cmd.Flags().StringP("config", "c", hookcfg.DefaultFileName, "Path to the hook document")
	cmd.Flags().String("policy", "", "Evaluate a custom rego policy file instead of the built-in one")
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	policyPath, _ := cmd.Flags().GetString("policy")

	data, err := os.ReadFile(configPath) // #nosec G304 -- user-specified config path
	if err != nil {
		return exitWith(exitcode.ConfigError, fmt.Errorf("cannot read %s: %w", configPath, err))
	}

	if err := hookcfg.ValidateDocument(data); err != nil {
		return exitWith(exitcode.ConfigError, err)
	}
	if _, err := hookcfg.Parse(data); err != nil {
		return exitWith(exitcode.ConfigError, err)
	}

	var doc hookcfg.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return exitWith(exitcode.ConfigError, err)
	}

	eng := policy.NewEngine()
	if policyPath != "" {
		if err := eng.LoadPolicy(policyPath); err != nil {
			return exitWith(exitcode.ConfigError, err)
		}
	}
	violations, err := eng.Evaluate(cmd.Context(), &doc)
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}
	if len(violations) > 0 {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s violates pin policy:\n", configPath)
		for _, v := range violations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
		return exitWith(exitcode.ConfigError, nil)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", configPath)
	return nil
}
