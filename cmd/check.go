package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/agausmann/ope/internal/gitguard"
	"github.com/agausmann/ope/internal/policy"
)

var checkMinLength int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check stored credentials and the credentials file for problems",
	Long: `Check the credentials file and its entries.

Entries are evaluated against built-in Rego rules (short passwords, empty
usernames, passwords equal to the username, entries that cannot be written
back). Extra rules can be added with policy_file in the config; they define
more "violations" in package ope.

The file itself is checked for permissions readable by other users and for
being inside a git work tree without being ignored.

Examples:
  ope check
  ope check --min-length 16`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := appConfig.CredentialsFile

	store, err := loadStore(path)
	if err != nil {
		return err
	}

	minLength := appConfig.MinPasswordLength
	if checkMinLength >= 0 {
		minLength = checkMinLength
	}

	var opts []policy.Option
	if appConfig.PolicyFile != "" {
		opts = append(opts, policy.WithModuleFile(appConfig.PolicyFile))
	}
	evaluator, err := policy.New(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	violations, err := evaluator.Evaluate(cmd.Context(), store, policy.Params{MinPasswordLength: minLength})
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Checking %s (%d credentials)", path, store.Len())))

	checkFile(path)

	if len(violations) == 0 {
		fmt.Println(okStyle.Render("  OK: no policy violations"))
		return nil
	}
	for _, v := range violations {
		fmt.Printf("  %s %s: %s %s\n",
			failStyle.Render("FAIL"),
			fmt.Sprintf("%q", v.Username),
			v.Message,
			dimStyle.Render("("+v.Rule+")"))
	}
	return fmt.Errorf("%d policy violation(s) found", len(violations))
}

// checkFile prints warnings about how the credentials file is stored
func checkFile(path string) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Println(dimStyle.Render("  file does not exist yet"))
	case err != nil:
		fmt.Fprintf(os.Stderr, "Warning: cannot stat %s: %v\n", path, err)
	case info.Mode().Perm()&0077 != 0:
		fmt.Println(warnStyle.Render(fmt.Sprintf("  WARN: file mode %04o allows access by other users (want 0600)", info.Mode().Perm())))
	}

	result, err := gitguard.Check(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: git check failed: %v\n", err)
		return
	}
	switch {
	case result.Tracked:
		fmt.Println(warnStyle.Render(fmt.Sprintf("  WARN: file is tracked by the git repository at %s", result.RepoRoot)))
	case result.Exposed():
		fmt.Println(warnStyle.Render(fmt.Sprintf("  WARN: file is inside the git work tree at %s and not ignored", result.RepoRoot)))
	}
}

func init() {
	checkCmd.Flags().IntVar(&checkMinLength, "min-length", -1, "Minimum password length (default min_password_length from config)")

	rootCmd.AddCommand(checkCmd)
}
