package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultModelsDir    = ".drivebase/models"
	defaultFetchTimeout = 60
	defaultOCRLanguage  = "eng"
	defaultOCRDPI       = 300
)

// OCR describes the external toolchain used by the extraction pipeline.
// Binary fields may be bare names (resolved via PATH) or absolute paths.
type OCR struct {
	Enabled   bool   `yaml:"enabled"`
	Tesseract string `yaml:"tesseract"`
	Pdftotext string `yaml:"pdftotext"`
	Pdftoppm  string `yaml:"pdftoppm"`
	Language  string `yaml:"language"`
	DPI       int    `yaml:"dpi"`
}

// Config describes runtime configuration for the service.
type Config struct {
	Port                int               `yaml:"port"`
	ModelsDir           string            `yaml:"models_dir"`
	ModelAssetURLs      map[string]string `yaml:"model_asset_urls"`
	FetchTimeoutSeconds int               `yaml:"fetch_timeout_seconds"`
	OCR                 OCR               `yaml:"ocr"`
}

// Default returns sane defaults for local development.
func Default() Config {
	return Config{
		Port:                defaultPort,
		ModelsDir:           defaultModelsDir,
		ModelAssetURLs:      map[string]string{},
		FetchTimeoutSeconds: defaultFetchTimeout,
		OCR: OCR{
			Enabled:   true,
			Tesseract: "tesseract",
			Pdftotext: "pdftotext",
			Pdftoppm:  "pdftoppm",
			Language:  defaultOCRLanguage,
			DPI:       defaultOCRDPI,
		},
	}
}

// FetchTimeout returns the network fetch ceiling as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Load reads YAML config from the provided path. If the file does not exist
// or is empty, defaults are returned with no error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is controlled by deployment
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(fileData, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	// basic normalization
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = defaultModelsDir
	}
	if cfg.ModelAssetURLs == nil {
		cfg.ModelAssetURLs = map[string]string{}
	}
	// validate the fetch ceiling explicitly: values < 1 are not allowed
	if cfg.FetchTimeoutSeconds < 1 {
		return cfg, fmt.Errorf("invalid fetch_timeout_seconds: %d (must be >= 1)", cfg.FetchTimeoutSeconds)
	}
	cfg.OCR = normalizeOCR(cfg.OCR)
	return cfg, nil
}

func normalizeOCR(in OCR) OCR {
	if in.Tesseract == "" {
		in.Tesseract = "tesseract"
	}
	if in.Pdftotext == "" {
		in.Pdftotext = "pdftotext"
	}
	if in.Pdftoppm == "" {
		in.Pdftoppm = "pdftoppm"
	}
	if in.Language == "" {
		in.Language = defaultOCRLanguage
	}
	if in.DPI <= 0 {
		in.DPI = defaultOCRDPI
	}
	return in
}
