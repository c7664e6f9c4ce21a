package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agausmann/ope/internal/config"
)

var (
	// Global configuration state
	appConfig *config.Config

	// Command line flags
	configPath      string
	credentialsPath string
	noColor         bool
	version         = "0.1.0" // This will be set during build
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ope",
	Short: "ope - manage a plain text username:password file",
	Long: `ope keeps username/password pairs in a colon-delimited text file,
one "username:password" entry per line.

The credentials file is NOT encrypted. Keep it out of version control and
readable only by you; 'ope check' warns about both.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(configPath)
		if err != nil {
			return err
		}
		if credentialsPath != "" {
			cfg.CredentialsFile = credentialsPath
		}
		appConfig = cfg

		setupColor(cfg.Color, noColor)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig.PrintConfiguration(stdout())
		return nil
	},
}

// stdout is resolved on every call so tests can swap os.Stdout
func stdout() io.Writer {
	return os.Stdout
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.ope/config.yaml, or $OPE_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&credentialsPath, "file", "f", "", "Credentials file (default ~/.ope/credentials, or $OPE_CREDENTIALS_FILE)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Add version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ope",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ope v%s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd, configCmd)
}
