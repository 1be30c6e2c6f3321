package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/courtbook/internal/api"
)

func newLoginCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Login(cmd.Context(), a.client, username, password); err != nil {
				if api.IsKind(err, api.KindUnauthorized) || api.IsKind(err, api.KindValidation) {
					return fmt.Errorf("login failed: check your username and password")
				}
				return err
			}
			fmt.Fprintf(os.Stdout, "logged in as %s\n", username)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "account username")
	c.Flags().StringVar(&password, "password", "", "account password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}

func newRegisterCmd() *cobra.Command {
	var username, email, password string

	c := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			form := api.RegistrationForm{
				Username:  username,
				Email:     email,
				Password1: password,
				Password2: password,
			}
			if err := a.store.Register(cmd.Context(), a.client, form); err != nil {
				return err
			}
			if a.store.Authenticated() {
				fmt.Fprintf(os.Stdout, "registered and logged in as %s\n", username)
			} else {
				fmt.Fprintf(os.Stdout, "registered %s; check your email to verify, then run `courtbook login`\n", username)
			}
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "account username")
	c.Flags().StringVar(&email, "email", "", "account email")
	c.Flags().StringVar(&password, "password", "", "account password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Logout(cmd.Context(), a.client); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "logged out")
			return nil
		},
	}
}
