package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Retrieval RetrievalConfig `yaml:"retrieval" envconfig:"RETRIEVAL"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// SourceConfig locates the ANS open-data endpoints and sets the HTTP budget
// for talking to them. Archive downloads get a longer timeout than
// directory-listing calls.
type SourceConfig struct {
	StatementsURL   string        `yaml:"statements_url" envconfig:"STATEMENTS_URL" default:"https://dadosabertos.ans.gov.br/FTP/PDA/demonstracoes_contabeis/"`
	RegistryURL     string        `yaml:"registry_url" envconfig:"REGISTRY_URL" default:"https://dadosabertos.ans.gov.br/FTP/PDA/operadoras_de_plano_de_saude_ativas/"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	ListingTimeout  time.Duration `yaml:"listing_timeout" envconfig:"LISTING_TIMEOUT" default:"30s"`
	DownloadTimeout time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"60s"`
}

// RetrievalConfig bounds how much data one pipeline run pulls down.
type RetrievalConfig struct {
	MaxPeriods  int `yaml:"max_periods" envconfig:"MAX_PERIODS" default:"3"`
	MaxFiles    int `yaml:"max_files" envconfig:"MAX_FILES" default:"3"`
	Concurrency int `yaml:"concurrency" envconfig:"CONCURRENCY" default:"3"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ConsolidatedCSV string `yaml:"consolidated_csv" envconfig:"CONSOLIDATED_CSV" default:"consolidado_despesas.csv"`
	ConsolidatedZip string `yaml:"consolidated_zip" envconfig:"CONSOLIDATED_ZIP" default:"consolidado_despesas.zip"`
	AggregatedCSV   string `yaml:"aggregated_csv" envconfig:"AGGREGATED_CSV" default:"despesas_agregadas.csv"`
}

// ServerConfig contains HTTP server configuration for the serving layer
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/anscli.log"`
}

// Load loads configuration from environment variables and config file.
// Environment variables (prefix ANS) take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ANS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Source.StatementsURL == "" {
		envConfig.Source.StatementsURL = fileConfig.Source.StatementsURL
	}
	if envConfig.Source.RegistryURL == "" {
		envConfig.Source.RegistryURL = fileConfig.Source.RegistryURL
	}
	if envConfig.Source.UserAgent == "" {
		envConfig.Source.UserAgent = fileConfig.Source.UserAgent
	}
	if envConfig.Source.ListingTimeout == 0 {
		envConfig.Source.ListingTimeout = fileConfig.Source.ListingTimeout
	}
	if envConfig.Source.DownloadTimeout == 0 {
		envConfig.Source.DownloadTimeout = fileConfig.Source.DownloadTimeout
	}
	if envConfig.Retrieval.MaxPeriods == 0 {
		envConfig.Retrieval.MaxPeriods = fileConfig.Retrieval.MaxPeriods
	}
	if envConfig.Retrieval.MaxFiles == 0 {
		envConfig.Retrieval.MaxFiles = fileConfig.Retrieval.MaxFiles
	}
	if envConfig.Retrieval.Concurrency == 0 {
		envConfig.Retrieval.Concurrency = fileConfig.Retrieval.Concurrency
	}
	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Source.StatementsURL == "" {
		return fmt.Errorf("statements URL must not be empty")
	}
	if c.Source.RegistryURL == "" {
		return fmt.Errorf("registry URL must not be empty")
	}
	if c.Source.ListingTimeout <= 0 {
		return fmt.Errorf("listing timeout must be positive")
	}
	if c.Source.DownloadTimeout < c.Source.ListingTimeout {
		return fmt.Errorf("download timeout must not be shorter than listing timeout")
	}
	if c.Retrieval.MaxPeriods <= 0 {
		return fmt.Errorf("max periods must be positive: %d", c.Retrieval.MaxPeriods)
	}
	if c.Retrieval.MaxFiles <= 0 {
		return fmt.Errorf("max files must be positive: %d", c.Retrieval.MaxFiles)
	}
	if c.Retrieval.Concurrency <= 0 {
		c.Retrieval.Concurrency = 1
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/anscli.log"
	}

	return nil
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	if filepath.IsAbs(c.Paths.DataDir) {
		return c.Paths.DataDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return c.Paths.DataDir
	}
	return filepath.Join(wd, c.Paths.DataDir)
}

// ConsolidatedCSVPath returns the full path of the consolidated output file.
func (c *Config) ConsolidatedCSVPath() string {
	return filepath.Join(c.GetDataDir(), c.Paths.ConsolidatedCSV)
}

// ConsolidatedZipPath returns the full path of the distribution archive.
func (c *Config) ConsolidatedZipPath() string {
	return filepath.Join(c.GetDataDir(), c.Paths.ConsolidatedZip)
}

// AggregatedCSVPath returns the full path of the aggregated output file.
func (c *Config) AggregatedCSVPath() string {
	return filepath.Join(c.GetDataDir(), c.Paths.AggregatedCSV)
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.GetDataDir(), filepath.Dir(c.Logging.FilePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			StatementsURL:   "https://dadosabertos.ans.gov.br/FTP/PDA/demonstracoes_contabeis/",
			RegistryURL:     "https://dadosabertos.ans.gov.br/FTP/PDA/operadoras_de_plano_de_saude_ativas/",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ListingTimeout:  30 * time.Second,
			DownloadTimeout: 60 * time.Second,
		},
		Retrieval: RetrievalConfig{
			MaxPeriods:  3,
			MaxFiles:    3,
			Concurrency: 3,
		},
		Paths: PathsConfig{
			DataDir:         "data",
			ConsolidatedCSV: "consolidado_despesas.csv",
			ConsolidatedZip: "consolidado_despesas.zip",
			AggregatedCSV:   "despesas_agregadas.csv",
		},
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/anscli.log",
		},
	}
}
