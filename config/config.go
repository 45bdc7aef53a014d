// Package config loads the parameters of a game with viper, from flags,
// POKERDUEL_* environment variables and an optional configuration file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luca-patrignani/headsup-poker/game"
)

const EnvPrefix = "POKERDUEL"

// Keys read by Load.
const (
	KeyFunds             = "funds"
	KeyBlinds            = "blinds"
	KeyTurnTimeout       = "turn-timeout"
	KeyVerificationDelay = "verification-delay"
	KeyVerificationStep  = "verification-step"
	KeyFile              = "config"
)

const DefaultTurnTimeout = 2 * time.Minute

// New returns a viper instance with the defaults of a game and the
// environment bound under EnvPrefix.
func New() *viper.Viper {
	v := viper.New()
	d := game.DefaultConfig()
	v.SetDefault(KeyFunds, []uint{d.Funds[0], d.Funds[1]})
	v.SetDefault(KeyBlinds, []uint{d.Blinds[0], d.Blinds[1]})
	v.SetDefault(KeyTurnTimeout, DefaultTurnTimeout)
	v.SetDefault(KeyVerificationDelay, d.VerificationDelay)
	v.SetDefault(KeyVerificationStep, d.VerificationStep)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// AddFlags registers the game flags on fs and binds them to v.
func AddFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.IntSlice(KeyFunds, nil, "funds of seat 0 and seat 1")
	fs.IntSlice(KeyBlinds, nil, "blinds of seat 0 and seat 1")
	fs.Duration(KeyTurnTimeout, DefaultTurnTimeout, "time to wait for a move of the opponent, 0 to wait forever")
	fs.Duration(KeyVerificationDelay, game.DefaultVerificationDelay, "delay before the first verification update")
	fs.Duration(KeyVerificationStep, game.DefaultVerificationStep, "delay between verification updates")
	fs.String(KeyFile, "", "configuration file")
	for _, key := range []string{KeyFunds, KeyBlinds, KeyTurnTimeout, KeyVerificationDelay, KeyVerificationStep, KeyFile} {
		if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the configuration file named by KeyFile, if any, and returns
// the validated game configuration.
func Load(v *viper.Viper) (game.Config, error) {
	if file := v.GetString(KeyFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return game.Config{}, fmt.Errorf("cannot read %s: %w", file, err)
		}
	}
	var c game.Config
	var err error
	if c.Funds, err = pair(v, KeyFunds); err != nil {
		return game.Config{}, err
	}
	if c.Blinds, err = pair(v, KeyBlinds); err != nil {
		return game.Config{}, err
	}
	c.TurnTimeout = v.GetDuration(KeyTurnTimeout)
	c.VerificationDelay = v.GetDuration(KeyVerificationDelay)
	c.VerificationStep = v.GetDuration(KeyVerificationStep)
	if err := c.Validate(); err != nil {
		return game.Config{}, err
	}
	return c, nil
}

// pair reads a per-seat value. A single value applies to both seats.
// Environment variables and files may list the values as "500,1000".
func pair(v *viper.Viper, key string) ([2]uint, error) {
	var values []int
	var err error
	switch raw := v.Get(key).(type) {
	case string:
		values, err = cast.ToIntSliceE(strings.FieldsFunc(strings.Trim(raw, "[]"), func(r rune) bool {
			return r == ',' || r == ' '
		}))
	default:
		if values, err = cast.ToIntSliceE(raw); err != nil {
			var single int
			if single, err = cast.ToIntE(raw); err == nil {
				values = []int{single}
			}
		}
	}
	if err != nil {
		return [2]uint{}, fmt.Errorf("%s: %w", key, err)
	}
	switch len(values) {
	case 1:
		values = append(values, values[0])
	case 2:
	default:
		return [2]uint{}, fmt.Errorf("%s: expected one or two values, got %d", key, len(values))
	}
	var out [2]uint
	for seat, value := range values {
		if value < 0 {
			return [2]uint{}, fmt.Errorf("%s: negative value %d", key, value)
		}
		out[seat] = uint(value)
	}
	return out, nil
}
