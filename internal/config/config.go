package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"streambake/internal/dirs"
	"streambake/internal/model"
)

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	// Ensure base directories exist
	_ = dirs.EnsureAll()

	// Setup config search path
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: STREAMBAKE_*
	viper.SetEnvPrefix("STREAMBAKE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Bind root persistent flags to Viper keys
	_ = viper.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("publish_dir", root.PersistentFlags().Lookup("publish-dir"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}

// DefaultProfiles is the profile set used when the config file defines none.
func DefaultProfiles() []model.EncodingProfile {
	return []model.EncodingProfile{
		{Enabled: true, Device: "desktop", Dimensions: "1280xauto", VBitrate: "2000k", ABitrate: "128k"},
		{Enabled: true, Device: "mobile", Dimensions: "640xauto", VBitrate: "600k", ABitrate: "64k"},
	}
}

// Profiles decodes the `profiles` list from the loaded config, falling back
// to the built-in defaults when the key is absent or empty.
func Profiles() ([]model.EncodingProfile, error) {
	if !viper.IsSet("profiles") {
		return DefaultProfiles(), nil
	}
	var ps []model.EncodingProfile
	if err := viper.UnmarshalKey("profiles", &ps); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(ps) == 0 {
		return DefaultProfiles(), nil
	}
	return ps, nil
}
