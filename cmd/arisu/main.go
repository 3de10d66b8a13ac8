package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "ARISU"

var version = "2.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "arisu",
		Short:        "Arisu, a chat bot that answers with an LLM and remembers each conversation.",
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path (optional).")
	flags.String("mode", "dev", `mode of the bot, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of the webhook server")
	flags.Int("port", 3000, "port of the webhook server")
	flags.String("data", "data", "data directory holding the snapshots")
	flags.String("driver", "file", "snapshot driver: file|memory|sqlite|postgres")
	flags.String("dsn", "", "database source name for sql drivers")
	flags.String("log-level", "", "Logging level: debug|info|warn|error (defaults to info).")
	flags.String("log-format", "text", "Logging format: text|json.")

	for key, flag := range map[string]string{
		"config":         "config",
		"mode":           "mode",
		"addr":           "addr",
		"port":           "port",
		"data":           "data",
		"driver":         "driver",
		"dsn":            "dsn",
		"logging.level":  "log-level",
		"logging.format": "log-format",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	serve := newServeCmd()
	cmd.RunE = serve.RunE
	cmd.AddCommand(serve)
	cmd.AddCommand(newMembersCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func initConfig() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 3000)
	viper.SetDefault("data", "data")
	viper.SetDefault("driver", "file")
	viper.SetDefault("logging.format", "text")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "arisu %s\n", strings.TrimSpace(version))
			return nil
		},
	}
}
