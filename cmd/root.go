package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	apperrors "github.com/user/mockshop/internal/errors"
)

var (
	debugFlag   bool
	verboseFlag bool
	projectDir  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mockshop",
	Short: "Mock e-commerce backend with an LLM support agent",
	Long: `Mockshop serves a small in-memory shop (products, orders, users) over
a REST API and answers customer questions through a support chat backed by
a language model that can look up the customer's account.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the error's exit code
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			fmt.Fprintln(os.Stderr, appErr.GetUserMessage())
			os.Exit(appErr.ExitCode.Int())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperrors.ExitGeneralError.Int())
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging with caller information")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log to the console")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", ".", "Directory containing .mockshop/config.yaml")
}
