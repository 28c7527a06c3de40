package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Tiliavir/plaid/internal/config"
	"github.com/Tiliavir/plaid/internal/jira"
)

var (
	loginToken    string
	loginUsername string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store Jira credentials and verify them",
	Long: `login asks for a personal access token (or, with "auth": "basic", an API
token), checks it against the Jira server and stores it in
~/.plaid/auth/credentials.json.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Jira credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := jira.DeleteCredentials(cfg.DataDir); err != nil {
			fail(err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Token to store (prompted when empty)")
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "Username for basic auth (defaults to jira.username)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.Offline {
		return fmt.Errorf("login is not needed offline")
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	creds := jira.Credentials{Method: cfg.Jira.Auth, Username: loginUsername, Token: loginToken}
	if creds.Username == "" {
		creds.Username = cfg.Jira.Username
	}
	if creds.Method == config.AuthBasic && creds.Username == "" {
		name, err := prompt("Username: ", false)
		if err != nil {
			fail(err)
		}
		creds.Username = name
	}
	if creds.Token == "" {
		token, err := prompt("Token: ", true)
		if err != nil {
			fail(err)
		}
		creds.Token = token
	}
	if creds.Token == "" {
		return fmt.Errorf("no token given")
	}

	ctx := context.Background()
	client, err := jira.NewClient(cfg.Jira.URL, jira.NewHTTPClient(ctx, creds), nil)
	if err != nil {
		fail(err)
	}
	me, err := client.Myself(ctx)
	if err != nil {
		fail(err)
	}
	if err := jira.SaveCredentials(cfg.DataDir, creds); err != nil {
		fail(err)
	}
	fmt.Fprintf(color.Output, "Signed in as %s.\n", color.New(color.Bold).Sprint(me.DisplayName))
	return nil
}

// prompt reads one line from the terminal, without echo when secret.
func prompt(label string, secret bool) (string, error) {
	fmt.Fprint(os.Stderr, label)
	fd := int(os.Stdin.Fd())
	if secret && term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
