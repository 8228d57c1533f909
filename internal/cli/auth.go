package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quellt/boxwood/pkg/figma"
	"github.com/quellt/boxwood/pkg/session"
)

// sessionTTL is the duration for CLI sessions (30 days).
const sessionTTL = 30 * 24 * time.Hour

// verifyTimeout bounds the token check against the account endpoint.
const verifyTimeout = 30 * time.Second

// authCommand creates the auth command with subcommands.
func (c *CLI) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API credentials",
		Long: `Store and verify the personal access token used for document fetches.

Tokens are verified against the account endpoint and stored in
~/.config/boxwood/sessions/`,
	}

	cmd.AddCommand(c.authLoginCommand())
	cmd.AddCommand(c.authLogoutCommand())
	cmd.AddCommand(c.authStatusCommand())

	return cmd
}

// authLoginCommand creates the login subcommand.
func (c *CLI) authLoginCommand() *cobra.Command {
	var (
		token     string
		withToken bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a verified personal access token",
		Long: `Verify a personal access token and store it as a session.

The token can be passed with --token, piped on stdin with --with-token,
or entered at the prompt. Generate one under account settings on the
design service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if existing, _ := loadCLISession(ctx); existing != nil {
				printInfo("Already logged in as %s", existing.User.Handle)
				printDetail("Run 'boxwood auth logout' first to re-authenticate")
				return nil
			}

			tok, err := readToken(token, withToken)
			if err != nil {
				return err
			}
			_, err = c.runLogin(ctx, tok)
			return err
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "personal access token")
	cmd.Flags().BoolVar(&withToken, "with-token", false, "read the token from stdin")

	return cmd
}

// authLogoutCommand creates the logout subcommand.
func (c *CLI) authLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deleteCLISession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// authStatusCommand creates the status subcommand.
func (c *CLI) authStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the currently authenticated account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := loadCLISession(ctx)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
			defer cancel()

			spinner := newSpinnerWithContext(ctx, "Verifying token...")
			spinner.Start()

			user, err := c.newAuthClient(sess.Token).Me(ctx)
			if err != nil {
				spinner.StopWithError("Token invalid")
				return fmt.Errorf("verify token: %w", err)
			}
			spinner.Stop()

			printSuccess("Session")
			printKeyValue("Account", user.Handle)
			if user.Email != "" {
				printKeyValue("Email", user.Email)
			}
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))

			return nil
		},
	}
}

// =============================================================================
// Session Management
// =============================================================================

// loadCLISession loads the stored session from disk.
func loadCLISession(ctx context.Context) (*session.Session, error) {
	cliStore, err := session.NewCLIStore()
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	sess, err := cliStore.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("not logged in (run 'boxwood auth login' first)")
	}

	return sess, nil
}

func saveCLISession(ctx context.Context, token string, user *figma.User) (*session.Session, error) {
	cliStore, err := session.NewCLIStore()
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	sess, err := session.New(token, user, sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := cliStore.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return sess, nil
}

func deleteCLISession(ctx context.Context) error {
	cliStore, err := session.NewCLIStore()
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	return cliStore.DeleteSession(ctx)
}

// =============================================================================
// Token Login
// =============================================================================

// runLogin verifies the token against the account endpoint and stores the
// session.
func (c *CLI) runLogin(ctx context.Context, token string) (*session.Session, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	spinner := newSpinnerWithContext(verifyCtx, "Verifying token...")
	spinner.Start()

	user, err := c.newAuthClient(token).Me(verifyCtx)
	if err != nil {
		spinner.StopWithError("Token rejected")
		return nil, fmt.Errorf("verify token: %w", err)
	}
	spinner.Stop()

	sess, err := saveCLISession(ctx, token, user)
	if err != nil {
		return nil, err
	}

	printSuccess("Logged in as %s", user.Handle)
	printDetail("Session expires %s", sess.ExpiresAt.Format("Jan 2, 2006"))

	return sess, nil
}

// newAuthClient builds an uncached API client for token verification.
func (c *CLI) newAuthClient(token string) *figma.Client {
	client := figma.NewClient(token, nil, nil)
	if c.Config.API.BaseURL != "" {
		client.SetBaseURL(c.Config.API.BaseURL)
	}
	return client
}

// readToken collects the token from the flag, stdin, or an interactive
// prompt, in that order.
func readToken(flagValue string, withToken bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	reader := bufio.NewReader(os.Stdin)
	if !withToken {
		printInline("Paste your personal access token: ")
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !withToken {
		printNewline()
	}

	token := strings.TrimSpace(line)
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}
