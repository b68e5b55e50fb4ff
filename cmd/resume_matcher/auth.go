package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/remote"
	"github.com/jonathan/resume-matcher/internal/types"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the server and log in",
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the server and sync your resume",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session; the local resume is kept",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account",
	RunE:  runWhoami,
}

var (
	authName     string
	authEmail    string
	authPassword string
)

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (read from stdin when omitted)")
		c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "Display name")
	registerCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

// readPassword returns --password or the first line of stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	in := bufio.NewScanner(cmd.InOrStdin())
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		return "", errors.New("password is required")
	}
	return strings.TrimRight(in.Text(), "\r\n"), nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	return authenticate(cmd, func(ctx context.Context, c *remote.Client) (*types.LoginResponse, error) {
		return c.Register(ctx, types.RegisterRequest{Name: authName, Email: authEmail, Password: password})
	})
}

func runLogin(cmd *cobra.Command, _ []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	return authenticate(cmd, func(ctx context.Context, c *remote.Client) (*types.LoginResponse, error) {
		return c.Login(ctx, types.LoginRequest{Email: authEmail, Password: password})
	})
}

// authenticate runs an auth call, saves the session token and performs the
// first sync so the newer of the local and server resume wins.
func authenticate(cmd *cobra.Command, call func(context.Context, *remote.Client) (*types.LoginResponse, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	resp, err := call(cmd.Context(), remote.New(cfg.ServerURL, ""))
	if err != nil {
		return err
	}
	if err := saveToken(resp.Token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", resp.User.Name, resp.User.Email)

	return withSession(cmd.Context(), false, func(s *session) error {
		r := s.ws.Resume()
		if !r.IsEmpty() {
			fmt.Fprintf(cmd.OutOrStdout(), "Synced resume for %s\n", r.PersonalInfo.Name)
		}
		return nil
	})
}

// saveToken writes token into the config file, leaving other settings as written.
func saveToken(token string) error {
	cfg, path, err := readConfigFile()
	if err != nil {
		return err
	}
	cfg.Token = token
	return cfg.Save(path)
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if err := saveToken(""); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Token == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		return nil
	}
	user, err := remote.New(cfg.ServerURL, cfg.Token).Me(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> on %s\n", user.Name, user.Email, cfg.ServerURL)
	return nil
}
