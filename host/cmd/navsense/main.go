package main

import (
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"navsense/host/config"
)

var RootCmd = &cobra.Command{
	Use:   "navsense",
	Short: "host tools for the ADNS-9800 motion sensor",
	Long: `host tools for the ADNS-9800 motion sensor.
The sensor is either attached to a microcontroller that streams motion reports
over USB serial (stream), or wired to a Linux SPI port and driven directly
(capture, probe --spi).`,
	SilenceUsage: true,
}

// commonFlags are shared by the commands that load the configuration
func commonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file path")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

// loadConfig parses the configuration for cmd and applies the log level
func loadConfig(cmd *cobra.Command) (config.NavSenseDesc, error) {
	desc := config.NewNavSenseDesc()
	if err := desc.Parse(cmd); err != nil {
		return desc, err
	}
	desc.PostParse()
	return desc, nil
}

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", config.DefaultConfig, "specify output path")
	cmd.Flags().String("config", "", "configuration file to start from")
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init create a configuration template",
	Long: `init create a configuration template.
If --print flag is present, the configuration will be printed to stdout.
If --output / -o flag is present, the configuration will be saved to the path specified
Otherwise init will output configuration file to $HOME/.config/navsense/config.yaml
If --yes / -y flag is present, the configuration will be overwrite without confirmation
`,
	Example: `  navsense init --print
  navsense init -o /path/to/config.yaml -y`,
	RunE: config.InitCfg,
}

var rootOnce sync.Once

func getRootCmd() *cobra.Command {
	rootOnce.Do(func() {
		StreamCmdFlags(StreamCmd)
		RootCmd.AddCommand(StreamCmd)

		CaptureCmdFlags(CaptureCmd)
		RootCmd.AddCommand(CaptureCmd)

		ProbeCmdFlags(ProbeCmd)
		RootCmd.AddCommand(ProbeCmd)

		InitCmdFlags(InitCmd)
		RootCmd.AddCommand(InitCmd)
	})
	return RootCmd
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
