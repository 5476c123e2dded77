package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/raushankrgupta/fish-scout/utils"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash for ACCESS_PASSWORD_HASH",
	Long:  "Hashes the password given as argument, or the first line of stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("no password given")
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		hash, err := utils.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
