package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agausmann/ope/internal/creds"
)

var (
	listShowPasswords bool
	setFromStdin      bool
	setGenerate       bool
	clearConfirmed    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored usernames in file order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(appConfig.CredentialsFile)
		if err != nil {
			return err
		}
		if store.Len() == 0 {
			fmt.Printf("No credentials stored in %s\n", appConfig.CredentialsFile)
			return nil
		}

		rows := make([][]string, 0, store.Len())
		for username, password := range store.All() {
			rows = append(rows, []string{strconv.Itoa(len(rows) + 1), username, password})
		}
		fmt.Println(credentialTable(rows, listShowPasswords))
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get USERNAME",
	Short: "Print the password stored for a username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(appConfig.CredentialsFile)
		if err != nil {
			return err
		}
		password, ok := store.Get(args[0])
		if !ok {
			return fmt.Errorf("username not present: %s", args[0])
		}
		fmt.Println(password)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set USERNAME [PASSWORD]",
	Short: "Add or replace the password for a username",
	Long: `Add a username/password pair, replacing the password if the username
already exists. The entry keeps its position in the file.

The password is taken from the argument, from the first line of stdin
(--stdin), generated randomly (--generate), or prompted for when running
in a terminal.

Usernames cannot contain ':' or newlines; passwords cannot contain newlines.

Examples:
  ope set alice
  ope set alice 'correct horse battery staple'
  printf 'secret\n' | ope set alice --stdin
  ope set deploy --generate`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearConfirmed {
			return fmt.Errorf("refusing to clear %s without --yes", appConfig.CredentialsFile)
		}
		store, err := loadStore(appConfig.CredentialsFile)
		if err != nil {
			return err
		}
		n := store.Len()
		store.Clear()
		if err := saveStore(store, appConfig.CredentialsFile); err != nil {
			return err
		}
		fmt.Printf("Removed %d credentials from %s\n", n, appConfig.CredentialsFile)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Merge credentials from another file",
	Long: `Merge the entries of another username:password file into the store.
Usernames already present are overwritten in place; new ones are appended
in the order they appear in FILE. Lines without a colon are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := creds.ReadFromFile(args[0])
		if err != nil {
			return err
		}
		store, err := loadStore(appConfig.CredentialsFile)
		if err != nil {
			return err
		}
		for username, password := range src.All() {
			store.Insert(username, password)
		}
		if err := saveStore(store, appConfig.CredentialsFile); err != nil {
			return err
		}
		fmt.Printf("Imported %d credentials from %s\n", src.Len(), args[0])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the credentials file to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(appConfig.CredentialsFile)
		if err != nil {
			return err
		}
		return store.Write(stdout())
	},
}

func runSet(cmd *cobra.Command, args []string) error {
	username := args[0]
	if setFromStdin && setGenerate {
		return fmt.Errorf("--stdin and --generate cannot be used together")
	}

	var password string
	generated := false
	switch {
	case len(args) == 2:
		password = args[1]
	case setFromStdin:
		line, err := readLine(cmd.InOrStdin())
		if err != nil {
			return err
		}
		password = line
	case setGenerate:
		password = uuid.NewString()
		generated = true
	case interactive():
		p, err := promptPassword(username)
		if err != nil {
			return err
		}
		password = p
	default:
		return fmt.Errorf("password required: pass it as an argument, or use --stdin or --generate")
	}

	// reject before touching the file so a bad entry cannot truncate it
	if err := creds.ValidEntry(username, password); err != nil {
		return err
	}

	store, err := loadStore(appConfig.CredentialsFile)
	if err != nil {
		return err
	}
	_, existed := store.Get(username)
	store.Insert(username, password)
	if err := saveStore(store, appConfig.CredentialsFile); err != nil {
		return err
	}

	if generated {
		fmt.Printf("Generated password for %s: %s\n", username, password)
	}
	if existed {
		fmt.Printf("Updated password for %s\n", username)
	} else {
		fmt.Printf("Added %s\n", username)
	}
	return nil
}

// readLine returns the first line of r without its line terminator
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if l, ok := strings.CutSuffix(line, "\n"); ok {
		line = strings.TrimSuffix(l, "\r")
	}
	if line == "" && errors.Is(err, io.EOF) {
		return "", fmt.Errorf("no password on stdin")
	}
	return line, nil
}

// loadStore reads the credentials file, treating a missing file as empty
func loadStore(path string) (*creds.Store, error) {
	store, err := creds.ReadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return creds.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// saveStore validates the whole store before writing so a failure leaves the
// existing file untouched
func saveStore(store *creds.Store, path string) error {
	if err := store.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := store.WriteToFile(path); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func init() {
	listCmd.Flags().BoolVar(&listShowPasswords, "show-passwords", false, "Print passwords instead of masking them")
	setCmd.Flags().BoolVar(&setFromStdin, "stdin", false, "Read the password from the first line of stdin")
	setCmd.Flags().BoolVar(&setGenerate, "generate", false, "Generate a random password")
	clearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "Confirm removing all credentials")

	rootCmd.AddCommand(listCmd, getCmd, setCmd, clearCmd, importCmd, exportCmd)
}
