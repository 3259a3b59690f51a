package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"organ/internal/composer"
	applog "organ/internal/log"
	"organ/internal/units"
	"organ/internal/wheel"
)

// settings holds the engine preferences resolved from flags, ORGAN_* env
// vars and an optional config file.
type settings struct {
	DropsPerMl    float64 `mapstructure:"drops_per_ml"`
	Currency      string  `mapstructure:"currency"`
	Compatibility string  `mapstructure:"compatibility"`
	Wheel         string  `mapstructure:"wheel"`
	LogLevel      string  `mapstructure:"log_level"`
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "organctl",
		Short:         "Score and scale fragrance compositions offline",
		Long:          "organctl evaluates formula files against a fragrance wheel: balance, harmony, cost, bench recipes and scaled batches.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(v, cmd); err != nil {
				return err
			}
			applog.ReplaceLogger(applog.NewWriterLogger(cmd.ErrOrStderr()))
			return applog.SetLevel(v.GetString("log_level"))
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default .organ.toml)")
	flags.Float64("drops-per-ml", units.DefaultDropsPerVolumeUnit, "drops per millilitre")
	flags.String("currency", "USD", "currency code for prices")
	flags.String("compatibility", "directed", "compatibility policy: directed or symmetric")
	flags.String("wheel", "", "wheel file (JSON or TOML); the built-in wheel when empty")
	flags.String("log-level", "error", "log level")

	if err := bindFlags(v, flags, settingFlags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newScoreCmd(v),
		newRecipeCmd(v),
		newScaleCmd(v),
		newLuckyCmd(v),
		newWheelCmd(v),
	)
	return root
}

// settingFlags maps viper keys onto the persistent flags that set them.
var settingFlags = map[string]string{
	"drops_per_ml":  "drops-per-ml",
	"currency":      "currency",
	"compatibility": "compatibility",
	"wheel":         "wheel",
	"log_level":     "log-level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("organctl: no flag %q for setting %q", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("organctl: bind %q: %w", key, err)
		}
	}
	return nil
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".organ")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ORGAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func loadSettings(v *viper.Viper) (settings, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// environment resolves the engine settings and the wheel to score against.
func environment(v *viper.Viper) (composer.Settings, *wheel.Graph, error) {
	s, err := loadSettings(v)
	if err != nil {
		return composer.Settings{}, nil, err
	}
	if _, err := units.NewConverter(s.DropsPerMl); err != nil {
		return composer.Settings{}, nil, err
	}
	policy, err := wheel.ParsePolicy(s.Compatibility)
	if err != nil {
		return composer.Settings{}, nil, err
	}

	var g *wheel.Graph
	if path := strings.TrimSpace(s.Wheel); path != "" {
		g, err = wheel.LoadFile(path)
	} else {
		g, err = wheel.Default()
	}
	if err != nil {
		return composer.Settings{}, nil, err
	}

	return composer.Settings{
		DropsPerVolumeUnit: s.DropsPerMl,
		Currency:           strings.ToUpper(strings.TrimSpace(s.Currency)),
		Compatibility:      policy,
	}, g, nil
}
