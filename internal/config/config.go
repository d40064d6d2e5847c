package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mod struct {
		ID            string `yaml:"id"`
		LoaderVariant string `yaml:"loader_variant"`
	} `yaml:"mod"`
	Mappings struct {
		Store   string `yaml:"store"`   // sqlite database path
		Table   string `yaml:"table"`   // yaml table path; used when store is empty
		Version int    `yaml:"version"` // requested mapping version
	} `yaml:"mappings"`
	Strategies struct {
		AllowStubs           bool `yaml:"allow_stubs"`
		AllowWarnings        bool `yaml:"allow_warnings"`
		AllowSimplifications bool `yaml:"allow_simplifications"`
	} `yaml:"strategies"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

// LoadConfig reads config.yaml-style configuration with .env and
// environment-variable overrides.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Mappings.Version = 1
	cfg.Strategies.AllowStubs = true
	cfg.Strategies.AllowWarnings = true
	cfg.Output.Dir = "converted"

	// 2. Load YAML config when present
	if file, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with environment variables if present
	if store := os.Getenv("MODPORT_MAPPING_STORE"); store != "" {
		cfg.Mappings.Store = store
	}
	if table := os.Getenv("MODPORT_MAPPING_TABLE"); table != "" {
		cfg.Mappings.Table = table
	}
	if v := os.Getenv("MODPORT_MAPPING_VERSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Mappings.Version = n
		}
	}
	if id := os.Getenv("MODPORT_MOD_ID"); id != "" {
		cfg.Mod.ID = id
	}
	if v := os.Getenv("MODPORT_ALLOW_STUBS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strategies.AllowStubs = b
		}
	}
	if v := os.Getenv("MODPORT_ALLOW_WARNINGS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strategies.AllowWarnings = b
		}
	}
	if v := os.Getenv("MODPORT_ALLOW_SIMPLIFICATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strategies.AllowSimplifications = b
		}
	}
	if dir := os.Getenv("MODPORT_OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}

	return cfg, nil
}
