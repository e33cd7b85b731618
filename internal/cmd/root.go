package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hlgirard/simplabel/internal/config"
	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "simplabel",
	Short: "Multi-user image labeling with shared-directory coordination",
	Long: `Simplabel labels a directory of images into a fixed set of categories.
Several labelers work on the same directory concurrently, each under
their own name; labels are kept per user, conflicts are surfaced as they
appear, and a reconciliation pass turns them into a single master label
set.`,
	RunE: runLabel,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/simplabel/config.yaml)")
	rootCmd.PersistentFlags().StringP("directory", "d", ".", "image directory to label")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("directory", rootCmd.PersistentFlags().Lookup("directory"))

	rootCmd.Flags().StringP("username", "u", "", "labeler name (required, \"master\" is reserved)")
	rootCmd.Flags().StringSlice("categories", nil, "seed the shared category list")
	rootCmd.Flags().Bool("reset-lock", false, "force-release a stale session lock before starting")
	rootCmd.Flags().Bool("redundant", false, "hide other labelers' work for independent labeling")
	_ = viper.BindPFlag("username", rootCmd.Flags().Lookup("username"))
	_ = viper.BindPFlag("categories", rootCmd.Flags().Lookup("categories"))
	_ = viper.BindPFlag("reset_lock", rootCmd.Flags().Lookup("reset-lock"))
	_ = viper.BindPFlag("redundant", rootCmd.Flags().Lookup("redundant"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SIMPLABEL")
	// SIMPLABEL_SESSION_AUTO_SAVE_SECONDS for session.auto_save_seconds
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}

// newLogger builds the session logger from the logging config. The log
// file sits inside the label directory so it travels with the data.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.Nop(), nil
	}
	return logging.New(
		filepath.Join(cfg.Directory, ".simplabel.log"),
		cfg.Logging.Level,
		logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		},
	)
}

func runLabel(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	return tui.Run(cfg, log)
}
