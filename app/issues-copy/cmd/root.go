package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cchalm/issues-copy/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "issues-copy",
	Short: "Copy GitHub issues from one repository to another",
	Long: `issues-copy copies every issue of a source repository into a destination repository,
keeping title, body, labels and open/closed state. Comments can be copied as well; each
copied comment names its original author and creation time.

Configuration is read from the environment (and a .env file, if present). Flags override
the environment.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE:       loadRootConfig,
	RunE:          runCopy,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err = config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		var missingErr *config.MissingVariablesError
		if errors.As(err, &missingErr) {
			printMissingHelp(cmd.ErrOrStderr(), missingErr)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func init() {
	bindFlags(rootCmd)
}
