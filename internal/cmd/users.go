package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlgirard/simplabel/internal/config"
	"github.com/hlgirard/simplabel/internal/lock"
	"github.com/hlgirard/simplabel/internal/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List labelers and their session state",
	RunE:  runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Directory)
	if err != nil {
		return err
	}
	users, err := st.Users()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("no labelers yet")
		return nil
	}

	locks := lock.NewManager(st.Dir())
	for _, user := range users {
		labels, err := st.LoadUserLabels(user)
		if err != nil {
			return err
		}
		state := ""
		if locked, err := locks.IsLocked(user); err == nil && locked {
			state = "  [session active]"
		}
		fmt.Printf("%-20s %d labels%s\n", user, len(labels), state)
	}
	return nil
}
