/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/postboard/apiserver/config"
	"github.com/postboard/apiserver/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var readPassword = term.ReadPassword

var (
	flagEmail     string
	flagPassword  string
	flagFirstName string
	flagLastName  string
	flagPhoto     string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and start a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, _, err := openAuthContext(cmd.Context())
		if err != nil {
			return err
		}

		in := bufio.NewReader(cmd.InOrStdin())
		req := client.SignupRequest{
			FirstName:    flagFirstName,
			LastName:     flagLastName,
			Email:        flagEmail,
			ProfilePhoto: flagPhoto,
		}
		if req.FirstName == "" {
			req.FirstName = prompt(cmd.OutOrStdout(), in, "First name: ")
		}
		if req.LastName == "" {
			req.LastName = prompt(cmd.OutOrStdout(), in, "Last name: ")
		}
		if req.Email == "" {
			req.Email = prompt(cmd.OutOrStdout(), in, "Email: ")
		}
		req.Password, err = passwordInput(cmd.OutOrStdout())
		if err != nil {
			return err
		}

		return report(cmd.OutOrStdout(), ac.Signup(cmd.Context(), req), ac)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, _, err := openAuthContext(cmd.Context())
		if err != nil {
			return err
		}

		email := flagEmail
		if email == "" {
			email = prompt(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), "Email: ")
		}
		password, err := passwordInput(cmd.OutOrStdout())
		if err != nil {
			return err
		}

		return report(cmd.OutOrStdout(), ac.Login(cmd.Context(), email, password), ac)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, _, err := openAuthContext(cmd.Context())
		if err != nil {
			return err
		}
		ac.Logout()
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, _, err := openAuthContext(cmd.Context())
		if err != nil {
			return err
		}
		return ac.Protected(cmd.Context(), func(s client.Session) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %s)\n", s.User.FullName(), s.User.Email, s.User.ID)
			return nil
		})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, api, err := openAuthContext(cmd.Context())
		if err != nil {
			return err
		}
		return ac.Protected(cmd.Context(), func(s client.Session) error {
			users, err := api.AllUsers(cmd.Context(), s.Token)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.FullName(), u.Email)
			}
			return tw.Flush()
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "account email")
		c.Flags().StringVar(&flagPassword, "password", "", "account password (prompted when empty)")
	}
	signupCmd.Flags().StringVar(&flagFirstName, "first-name", "", "first name")
	signupCmd.Flags().StringVar(&flagLastName, "last-name", "", "last name")
	signupCmd.Flags().StringVar(&flagPhoto, "photo", "", "profile photo URL")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd, usersCmd)
}

func openAuthContext(ctx context.Context) (*client.AuthContext, *client.APIClient, error) {
	cfg := config.LoadConfig()
	if cfg.Client.SessionFile == "" {
		return nil, nil, errors.New("no session file location; set POSTBOARD_SESSION_FILE")
	}

	api := client.NewAPIClient(cfg.Client.BaseURL, cfg.Client.Timeout)
	ac := client.NewAuthContext(api, client.NewFileSessionStore(cfg.Client.SessionFile), newLogger(cfg))
	ac.Init(ctx)
	return ac, api, nil
}

func report(w io.Writer, res client.Result, ac *client.AuthContext) error {
	if !res.Success {
		return errors.New(res.Message)
	}
	user, _ := ac.User()
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	fmt.Fprintf(w, "Logged in as %s <%s>\n", user.FullName(), user.Email)
	return nil
}

func prompt(w io.Writer, in *bufio.Reader, label string) string {
	fmt.Fprint(w, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func passwordInput(w io.Writer) (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}
	fmt.Fprint(w, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
