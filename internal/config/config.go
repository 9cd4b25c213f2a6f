// Package config loads itemshop settings from a YAML file, an optional .env file and
// ITEMSHOP_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "ITEMSHOP_"

type Config struct {
	AccountID string   `yaml:"account_id"`
	Database  Database `yaml:"database"`
	Blob      Blob     `yaml:"blob"`
	Log       Log      `yaml:"log"`
	Metrics   Metrics  `yaml:"metrics"`
}

type Database struct {
	Driver string `yaml:"driver"` // sqlite3 (cgo) or sqlite (pure go)
	DSN    string `yaml:"dsn"`
}

type Blob struct {
	Driver string `yaml:"driver"` // fs, s3 or memory
	Root   string `yaml:"root"`
	S3     S3     `yaml:"s3"`
}

type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

type Log struct {
	Format string `yaml:"format"` // text, json or human
	Level  string `yaml:"level"`
}

type Metrics struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

func Default() Config {
	return Config{
		AccountID: "acc-demo",
		Database:  Database{Driver: "sqlite", DSN: "file:itemshop.db?_pragma=foreign_keys(1)"},
		Blob:      Blob{Driver: "fs", Root: "./blobdata"},
		Log:       Log{Format: "text", Level: "info"},
		Metrics:   Metrics{Namespace: "itemshop"},
	}
}

// Load reads path (skipped when empty or missing) and envFile (same), then applies the
// environment on top of the defaults.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if envFile != "" {
		// godotenv.Load never overrides variables already set
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env (%s): %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ACCOUNT_ID":           &c.AccountID,
		"DB_DRIVER":            &c.Database.Driver,
		"DB_DSN":               &c.Database.DSN,
		"BLOB_DRIVER":          &c.Blob.Driver,
		"BLOB_ROOT":            &c.Blob.Root,
		"S3_BUCKET":            &c.Blob.S3.Bucket,
		"S3_REGION":            &c.Blob.S3.Region,
		"S3_ENDPOINT":          &c.Blob.S3.Endpoint,
		"S3_ACCESS_KEY_ID":     &c.Blob.S3.AccessKeyID,
		"S3_SECRET_ACCESS_KEY": &c.Blob.S3.SecretAccessKey,
		"LOG_FORMAT":           &c.Log.Format,
		"LOG_LEVEL":            &c.Log.Level,
		"METRICS_ADDR":         &c.Metrics.Addr,
		"METRICS_NAMESPACE":    &c.Metrics.Namespace,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	if v, ok := lookup(EnvPrefix + "S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sS3_PATH_STYLE: %w", EnvPrefix, err)
		}
		c.Blob.S3.PathStyle = b
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AccountID) == "" {
		errs = append(errs, errors.New("account_id is required"))
	}
	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q not supported", c.Blob.Driver))
	}
	switch c.Log.Format {
	case "text", "json", "human":
	default:
		errs = append(errs, fmt.Errorf("log.format %q not supported", c.Log.Format))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
