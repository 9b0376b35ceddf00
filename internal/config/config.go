package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Batch      BatchConfig      `yaml:"batch"`
	Screening  ScreeningConfig  `yaml:"screening"`
	NEB        NEBConfig        `yaml:"neb"`
	Calculator CalculatorConfig `yaml:"calculator"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Bus        BusConfig        `yaml:"bus"`
	Web        WebConfig        `yaml:"web"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Notify     NotifyConfig     `yaml:"notify"`
	Batches    map[string]ScheduledBatch `yaml:"batches"`
	Catalog    map[string]CatalogEntry   `yaml:"catalog"`
}

type BatchConfig struct {
	BaseDir    string   `yaml:"base_dir"`
	Workers    int      `yaml:"workers"`
	Adsorbates []string `yaml:"adsorbates"`
}

type ScreeningConfig struct {
	Centering  string `yaml:"centering"`
	Exhaustive bool   `yaml:"exhaustive"`
}

type NEBConfig struct {
	Images        int     `yaml:"images"`
	RotationAngle float64 `yaml:"rotation_angle"`
}

type CalculatorConfig struct {
	Mode    string        `yaml:"mode"`
	Image   string        `yaml:"image"`
	Secrets []string      `yaml:"secrets"`
	Timeout time.Duration `yaml:"timeout"`
	Slab    SlabConfig    `yaml:"slab"`
}

type SlabConfig struct {
	Material        string  `yaml:"material"`
	Size            int     `yaml:"size"`
	LatticeConstant float64 `yaml:"lattice_constant"`
}

type LedgerConfig struct {
	Path string `yaml:"path"`
}

type BusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type NotifyConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	TelegramChat  int64  `yaml:"telegram_chat"`
}

type ScheduledBatch struct {
	Schedule   string   `yaml:"schedule"`
	Adsorbates []string `yaml:"adsorbates"`
}

type CatalogEntry struct {
	Formula     string  `yaml:"formula"`
	Charge      int     `yaml:"charge"`
	Magmom      float64 `yaml:"magmom"`
	Description string  `yaml:"description"`
}

func defaults() Config {
	return Config{
		Batch: BatchConfig{
			BaseDir:    "Adsorbates",
			Workers:    0,
			Adsorbates: []string{"CH2", "CH3", "OH", "NH2", "CO", "CO2", "NH3"},
		},
		Screening: ScreeningConfig{
			Centering:  "site",
			Exhaustive: true,
		},
		NEB: NEBConfig{
			Images:        10,
			RotationAngle: 120,
		},
		Calculator: CalculatorConfig{
			Mode:    "surrogate",
			Timeout: 30 * time.Minute,
			Slab: SlabConfig{
				Material:        "Pt",
				Size:            4,
				LatticeConstant: 3.92,
			},
		},
		Ledger: LedgerConfig{
			Path: "data/hpfneb.db",
		},
		Bus: BusConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Scheduler: SchedulerConfig{
			PollInterval: 30 * time.Second,
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("HPFNEB_CONFIG")
	if path == "" {
		path = "config/hpfneb.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HPFNEB_BASE_DIR"); v != "" {
		cfg.Batch.BaseDir = v
	}
	if v := os.Getenv("HPFNEB_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Workers = n
		}
	}
	if v := os.Getenv("HPFNEB_LEDGER_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("HPFNEB_CALCULATOR_IMAGE"); v != "" {
		cfg.Calculator.Image = v
	}
	if v := os.Getenv("HPFNEB_WEB_PASSWORD"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("HPFNEB_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("HPFNEB_BUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Bus.Port = port
		}
	}
	if v := os.Getenv("HPFNEB_TELEGRAM_TOKEN"); v != "" {
		cfg.Notify.TelegramToken = v
	}
	if v := os.Getenv("HPFNEB_TELEGRAM_CHAT"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Notify.TelegramChat = id
		}
	}
}
