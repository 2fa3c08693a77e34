package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration mockshop would run with, after merging:
  - CLI flags
  - Project: .mockshop/config.yaml
  - Global: ~/.mockshop.yaml
  - Environment: MOCKSHOP_* variables and .env
  - Built-in defaults

Secrets (auth secret key, LLM API key, directory password) are masked.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}
