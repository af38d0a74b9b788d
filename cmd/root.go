package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/open-feature/flagtmpl/pkg/runtime"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flagtmpl",
	Short: "Render templates that branch on remote feature flags",
	Long: `flagtmpl evaluates feature flags from Harness, LaunchDarkly or a local flag file
and exposes them to templates as feature_flag, feature_flag_str, feature_flag_num and
feature_flag_json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("flagtmpl failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.Bool(runtime.DisableKey, false, "disable feature flags, every flag returns its default")
	flags.String(runtime.ProviderKey, "", "flag provider: noop, harness, launchdarkly or file")
	flags.String(runtime.APIKeyKey, "", "API or SDK key of the remote provider")
	flags.String(runtime.TargetKey, "default", "deployment target the flags are evaluated for")
	flags.Float64(runtime.DelayKey, 1, "seconds to wait for the provider's initial flag load")
	flags.String(runtime.URIKey, "", "flag document path for the file provider")
	flags.String(runtime.LogLevelKey, "info", "log level")

	for _, key := range []string{
		runtime.DisableKey, runtime.ProviderKey, runtime.APIKeyKey, runtime.TargetKey,
		runtime.DelayKey, runtime.URIKey, runtime.LogLevelKey,
	} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
}

func initConfig() {
	runtime.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.WithError(err).Fatal("unable to read config file")
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(viper.GetString(runtime.LogLevelKey))
	if err != nil {
		log.WithError(err).Warn("invalid log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// newRuntime builds the composition root from the resolved configuration.
func newRuntime() *runtime.Runtime {
	return runtime.New(runtime.ConfigFromViper(viper.GetViper()), runtime.DefaultRegistry())
}
