package cli

import (
	"fmt"
	"os"

	"github.com/basinledger/settled/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool

	// loadedConfig holds the configuration resolved by initConfig, once
	// cobra has parsed --conf.
	loadedConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "settled",
	Short: "settled - multi-asset intent settlement engine",
	Long: `settled executes signed batches of settlement intents against a
durable account book: transfers, token swaps, public key and nonce
management, and asset withdrawals, matched and applied atomically per
batch.`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// initConfig reads the configuration file named by --conf. Subcommands
// that need it read loadedConfig rather than reloading it themselves.
func initConfig() {
	if configFile == "" {
		return
	}

	cfg, err := config.LoadConfig(config.ConfigPaths{Main: configFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config %s: %v\n", configFile, err)
		os.Exit(1)
	}
	loadedConfig = cfg
}
