package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlgirard/simplabel/internal/config"
	"github.com/hlgirard/simplabel/internal/flow"
)

var (
	flowLabeler string
	flowMove    bool
)

var flowCmd = &cobra.Command{
	Use:   "flow <target-dir>",
	Short: "Sort labeled images into per-category directories",
	Long: `Flow copies (or moves) every labeled image into a subdirectory of the
target named after its category. The master label set is used when it
exists; pass --labeler to use a specific user's labels instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlow,
}

func init() {
	flowCmd.Flags().StringVar(&flowLabeler, "labeler", "", "use this user's labels instead of the master set")
	flowCmd.Flags().BoolVar(&flowMove, "move", false, "move images instead of copying")
	rootCmd.AddCommand(flowCmd)
}

func runFlow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	runner, err := flow.New(cfg.Directory, log)
	if err != nil {
		return err
	}
	runner.Move = flowMove

	summary, err := runner.Run(args[0], flowLabeler)
	if err != nil {
		return err
	}

	fmt.Printf("placed %d images from %s's labels\n", summary.Total(), summary.Labeler)
	for category, count := range summary.Moved {
		fmt.Printf("  %-20s %d\n", category, count)
	}
	if len(summary.Missing) > 0 {
		fmt.Printf("%d labeled image(s) were missing from the directory\n", len(summary.Missing))
	}
	return nil
}
