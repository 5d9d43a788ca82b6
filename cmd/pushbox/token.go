package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pushbox/pushbox/internal/config"
	"github.com/pushbox/pushbox/internal/utils"
)

func init() {
	rootCmd.AddCommand(newTokenCmd())
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the GitHub token file",
	}
	cmd.AddCommand(newTokenSaveCmd())
	return cmd
}

func newTokenSaveCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "save [TOKEN]",
		Short: "Save a GitHub token to " + config.TokenFileName,
		Long: `Writes the token to ` + config.TokenFileName + ` with owner-only permissions.
Without an argument the token is prompted for without echo. Keep the
file out of version control.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				read, err := promptToken(cmd)
				if err != nil {
					return err
				}
				token = read
			}

			path := filepath.Join(dir, config.TokenFileName)
			if err := config.SaveToken(path, token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s token %s saved to %s\n",
				green.Render("OK"), utils.MaskSecret(token), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the token file in")
	return cmd
}

// promptToken reads the token without echo on a terminal, or a single
// line from piped stdin.
func promptToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.OutOrStdout(), "GitHub token: ")
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
