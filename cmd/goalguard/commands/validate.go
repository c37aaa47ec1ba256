package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key",
	Short: "Check an API key's format and whether the provider accepts it",
	Long: `Check an API key without storing it. With no flags the stored provider
and key are checked.

Examples:
  goalguard validate-key
  goalguard validate-key --provider openai --api-key sk-...`,
	Args: cobra.NoArgs,
	RunE: runValidateKey,
}

func init() {
	rootCmd.AddCommand(validateKeyCmd)

	flags := validateKeyCmd.Flags()
	flags.String("provider", "", "LLM provider (default: stored provider)")
	flags.String("api-key", "", "API key (default: stored key)")
	flags.String("model", "", "model used for the check (default: provider default)")
}

func runValidateKey(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	provider, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")

	check := a.svc.ValidateCredentials(cmd.Context(), provider, apiKey, model)
	if err := printResult(cmd, check); err != nil {
		return err
	}
	if !check.Valid {
		return errors.New(check.Message)
	}
	return nil
}
