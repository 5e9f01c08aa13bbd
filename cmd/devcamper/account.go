package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/ui"
)

var registerCmd = &cobra.Command{
	Use:     "register <name> <email>",
	Short:   "Register a user account",
	GroupID: "data",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		password := os.Getenv("DEVCAMPER_PASSWORD")
		if password == "" {
			p, err := readPassword()
			if err != nil {
				return err
			}
			password = p
		}

		u, err := apiClient.Register(cmd.Context(), &model.Registration{
			Name:     args[0],
			Email:    args[1],
			Password: password,
			Role:     model.Role(role),
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), u)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s <%s> as %s (%s)\n", u.Name, u.Email, u.Role, ui.RenderAccent(u.ID))
		return nil
	},
}

// readPassword prompts on the terminal without echo.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal to read a password from; set DEVCAMPER_PASSWORD")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the API server and its store are up",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := apiClient.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", apiURL, ui.RenderSuccess(status))
		return nil
	},
}

func init() {
	registerCmd.Flags().String("role", string(model.RoleUser), "account role (user or publisher)")
}
