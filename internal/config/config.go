// Package config resolves connection settings and credentials from a priority chain:
// explicit values first, then environment variables, then settings files discovered
// by walking up from a start directory.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/spf13/viper"
)

// Provider yields a setting, or None when it has nothing to offer.
type Provider func() optional.Option[string]

// DiscoveredFiles are looked up, in order, in the start directory and each of its parents.
var DiscoveredFiles = []string{
	".env",
	filepath.Join("config", "api_keys.env"),
	"marketdata.yaml",
}

// Chain returns the first value any provider yields.
func Chain(providers ...Provider) Provider {
	return func() optional.Option[string] {
		for _, p := range providers {
			if v := p(); v.IsSome() {
				return v
			}
		}

		return optional.None[string]()
	}
}

// Value yields s unless it is empty.
func Value(s string) Provider {
	return func() optional.Option[string] {
		return some(s)
	}
}

// Env yields the value of an environment variable when it is set and non-empty.
func Env(key string) Provider {
	return func() optional.Option[string] {
		return some(os.Getenv(key))
	}
}

// DotEnvFile yields key from a dotenv file without touching the process environment.
func DotEnvFile(path string, key string) Provider {
	return func() optional.Option[string] {
		values, err := godotenv.Read(path)
		if err != nil {
			return optional.None[string]()
		}

		return some(values[key])
	}
}

// SettingsFile yields key from a yaml, toml or json settings file.
// Keys match case-insensitively, so DATABASE_URL finds database_url.
func SettingsFile(path string, key string) Provider {
	return func() optional.Option[string] {
		if _, err := os.Stat(path); err != nil {
			return optional.None[string]()
		}

		v := viper.New()
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return optional.None[string]()
		}

		return some(v.GetString(strings.ToLower(key)))
	}
}

// Discovered walks from startDir up to the filesystem root and yields key from the
// first discovered file that defines it. An empty startDir means the working directory.
func Discovered(startDir string, key string) Provider {
	return func() optional.Option[string] {
		dir, err := absDir(startDir)
		if err != nil {
			return optional.None[string]()
		}

		for {
			for _, name := range DiscoveredFiles {
				path := filepath.Join(dir, name)

				var value optional.Option[string]
				if strings.HasSuffix(name, ".env") {
					value = DotEnvFile(path, key)()
				} else {
					value = SettingsFile(path, key)()
				}

				if value.IsSome() {
					return value
				}
			}

			parent := filepath.Dir(dir)
			if parent == dir {
				return optional.None[string]()
			}

			dir = parent
		}
	}
}

func absDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}

	return filepath.Abs(dir)
}

func some(s string) optional.Option[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return optional.None[string]()
	}

	return optional.Some(s)
}
