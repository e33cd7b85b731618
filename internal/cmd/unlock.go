package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlgirard/simplabel/internal/config"
	"github.com/hlgirard/simplabel/internal/lock"
	"github.com/hlgirard/simplabel/internal/store"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock <username>",
	Short: "Force-release a stale session lock",
	Long: `Unlock releases the session lock a crashed session left behind.
Only use this when no session is actually running under that name;
releasing a live session's lock allows conflicting concurrent edits.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnlock,
}

func init() {
	rootCmd.AddCommand(unlockCmd)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	username := store.SanitizeUsername(args[0])
	l, err := lock.New(cfg.Directory, username)
	if err != nil {
		return err
	}
	if err := l.Release(); err != nil {
		return err
	}

	fmt.Printf("released session lock for %s\n", username)
	return nil
}
