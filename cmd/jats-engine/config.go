// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/jats-engine/internal/convert"
	"github.com/pdiddy/jats-engine/internal/secrets"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// Settings resolve in order: explicit flag, config file or environment,
// flag default.

func stringSetting(cmd *cobra.Command, flag, key string) string {
	v, _ := cmd.Flags().GetString(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	return v
}

func intSetting(cmd *cobra.Command, flag, key string) int {
	v, _ := cmd.Flags().GetInt(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return v
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	v, _ := cmd.Flags().GetBool(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return v
}

func durationSetting(cmd *cobra.Command, flag, key string) time.Duration {
	v, _ := cmd.Flags().GetDuration(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return v
}

// addParseFlags registers the flags shared by every command that parses.
func addParseFlags(cmd *cobra.Command) {
	cmd.Flags().Int("excerpt-length", types.DefaultExcerptLength, "runes kept in text excerpts of generic targets")
	cmd.Flags().Bool("drop-disallowed", false, "drop tags outside the reference allow-list together with their content")
	cmd.Flags().StringSlice("warnings", nil, "warning policy: ignore, warn, or error; kind=action overrides one kind")
}

func parseConfig(cmd *cobra.Command) (types.ParseConfig, error) {
	cfg := types.ParseConfig{
		ExcerptLength:  intSetting(cmd, "excerpt-length", "parse.excerpt_length"),
		DropDisallowed: boolSetting(cmd, "drop-disallowed", "parse.drop_disallowed"),
		Warnings: types.WarningConfig{
			Default: types.WarningAction(viper.GetString("parse.warnings.default")),
		},
	}
	if overrides := viper.GetStringMapString("parse.warnings.overrides"); len(overrides) > 0 {
		cfg.Warnings.Overrides = make(map[string]types.WarningAction, len(overrides))
		for k, v := range overrides {
			cfg.Warnings.Overrides[k] = types.WarningAction(v)
		}
	}

	values, _ := cmd.Flags().GetStringSlice("warnings")
	if err := applyWarningFlags(&cfg.Warnings, values); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyWarningFlags merges --warnings values into wc. A bare action sets the
// default; "kind=action" sets one override. Validation happens when the
// policy is built.
func applyWarningFlags(wc *types.WarningConfig, values []string) error {
	for _, v := range values {
		v = strings.TrimSpace(v)
		kind, action, found := strings.Cut(v, "=")
		if !found {
			wc.Default = types.WarningAction(v)
			continue
		}
		if kind == "" || action == "" {
			return fmt.Errorf("invalid --warnings value %q: want kind=action", v)
		}
		if wc.Overrides == nil {
			wc.Overrides = make(map[string]types.WarningAction)
		}
		wc.Overrides[kind] = types.WarningAction(action)
	}
	return nil
}

func convertConfig(cmd *cobra.Command) (types.ConvertConfig, error) {
	pc, err := parseConfig(cmd)
	if err != nil {
		return types.ConvertConfig{}, err
	}
	format, err := convert.ParseFormat(stringSetting(cmd, "format", "convert.format"))
	if err != nil {
		return types.ConvertConfig{}, err
	}
	return types.ConvertConfig{
		ParseConfig: pc,
		InputDir:    stringSetting(cmd, "input-dir", "convert.input_dir"),
		OutputDir:   stringSetting(cmd, "output-dir", "convert.output_dir"),
		Format:      format,
		Workers:     intSetting(cmd, "workers", "convert.workers"),
		Force:       boolSetting(cmd, "force", "convert.force"),
	}, nil
}

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	return types.StoreConfig{
		IndexDir:   stringSetting(cmd, "index-dir", "store.index_dir"),
		MaxResults: intSetting(cmd, "max-results", "store.max_results"),
	}
}

func fetchConfig(cmd *cobra.Command) types.FetchConfig {
	timeout := durationSetting(cmd, "timeout", "fetch.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ua := viper.GetString("fetch.user_agent")
	if ua == "" {
		ua = defaultUserAgent
	}
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: secrets.UserAgent(ua, loadedSecrets),
		},
		BaseURL:    stringSetting(cmd, "base-url", "fetch.base_url"),
		XMLDir:     stringSetting(cmd, "xml-dir", "fetch.xml_dir"),
		MaxRetries: intSetting(cmd, "max-retries", "fetch.max_retries"),
		Delay:      durationSetting(cmd, "delay", "fetch.delay"),
	}
}
