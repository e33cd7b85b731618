package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlgirard/simplabel/internal/aggregate"
	"github.com/hlgirard/simplabel/internal/config"
	"github.com/hlgirard/simplabel/internal/lock"
	"github.com/hlgirard/simplabel/internal/master"
	"github.com/hlgirard/simplabel/internal/session"
	"github.com/hlgirard/simplabel/internal/store"
)

var promoteForce bool

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Write the master label set once all labelers agree",
	Long: `Promote checks every labeler's store for the directory. When no
disagreements remain, the per-image consensus is written as the master
label set. Unlabeled images block promotion unless --force is given.`,
	RunE: runPromote,
}

func init() {
	promoteCmd.Flags().BoolVar(&promoteForce, "force", false, "promote even when unlabeled images remain")
	rootCmd.AddCommand(promoteCmd)
}

func runPromote(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	st, err := store.New(cfg.Directory)
	if err != nil {
		return err
	}
	images, err := session.DiscoverImages(st.Dir(), cfg.Images.Patterns)
	if err != nil {
		return err
	}
	users, err := st.Users()
	if err != nil {
		return err
	}

	locks := lock.NewManager(st.Dir())
	agg := aggregate.New(st, log)
	promoter := master.New(st, locks, agg, log)

	promoted, err := promoter.Promote(images, users, "", nil, func(count int) bool {
		if !promoteForce {
			fmt.Printf("%d image(s) are unlabeled; re-run with --force to promote anyway\n", count)
		}
		return promoteForce
	})
	if err != nil {
		if errors.Is(err, master.ErrDeclined) {
			return nil
		}
		return err
	}

	fmt.Printf("promoted %d labels to the master set\n", len(promoted))
	return nil
}
