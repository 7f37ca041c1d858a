package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SALESMART_"

// DefaultEnvFile is read when present and no explicit env file is given.
const DefaultEnvFile = ".env"

// LoadOptions select the optional layers.
type LoadOptions struct {
	// Path is the YAML/JSON config file. Empty skips the file layer.
	Path string
	// EnvFile is a dotenv file loaded into the environment. It must exist
	// when set; otherwise DefaultEnvFile is read if present.
	EnvFile string
}

// Load builds a Config from defaults, the config file and the environment.
// It does not validate; see ValidateConfig.
func Load(opt LoadOptions) (Config, error) {
	if err := loadEnvFile(opt.EnvFile); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if opt.Path != "" {
		if err := k.Load(file.Provider(opt.Path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", opt.Path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// envKey maps SALESMART_STORAGE__BATCH_SIZE to storage.batch_size.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load env file %s: %w", DefaultEnvFile, err)
	}
	return nil
}
