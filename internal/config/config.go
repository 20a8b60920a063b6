// Package config defines the trustlist configuration file and builds the
// certificate caches it describes.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/internal/timer"
	"github.com/infrahq/trustlist/source"
	"github.com/infrahq/trustlist/storage"
)

type Config struct {
	DataDir     string                `config:"dataDir"`
	RefreshAt   timer.TimeOfDay       `config:"refreshAt"`
	ParsePolicy certcache.ParsePolicy `config:"parsePolicy" validate:"oneof=lenient strict"`
	Addr        string                `config:"addr"`
	LogLevel    string                `config:"logLevel" validate:"oneof=debug info warn error"`
	LogFile     string                `config:"logFile"`
	SentryDSN   string                `config:"sentryDSN" validate:"omitempty,url"`

	Storage StorageConfig  `config:"storage"`
	Issuers []IssuerConfig `config:"issuers" validate:"dive"`
}

type StorageConfig struct {
	Kind       string                   `config:"kind" validate:"oneof=file memory kubernetes vault awssecretsmanager s3"`
	Kubernetes storage.KubernetesConfig `config:"kubernetes" validate:"-"`
	Vault      storage.VaultConfig      `config:"vault" validate:"-"`
	AWS        storage.AWSConfig        `config:"aws" validate:"-"`
	S3         storage.S3Config         `config:"s3" validate:"-"`
}

type IssuerConfig struct {
	Name     string       `config:"name" validate:"required"`
	Filename string       `config:"filename"`
	Source   SourceConfig `config:"source"`
}

type SourceConfig struct {
	Kind string `config:"kind" validate:"oneof=http file"`

	source.HTTPConfig `config:",squash" validate:"-"`

	// Path is the certificate list file for the file kind.
	Path string `config:"path"`
}

// Default returns the configuration used when a value is not set in the
// file, the environment, or a flag.
func Default() Config {
	return Config{
		DataDir:     "data",
		RefreshAt:   timer.OneAM,
		ParsePolicy: certcache.ParseLenient,
		Addr:        ":8080",
		LogLevel:    "info",
		Storage: StorageConfig{
			Kind:       "file",
			Kubernetes: storage.NewKubernetesConfig(),
			Vault:      storage.NewVaultConfig(),
		},
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Storage.Kind {
	case "file":
		if c.DataDir == "" {
			return fmt.Errorf("dataDir is required for file storage")
		}
	case "vault":
		if err := validate.Struct(c.Storage.Vault); err != nil {
			return fmt.Errorf("storage vault: %w", err)
		}
	case "s3":
		if err := validate.Struct(c.Storage.S3); err != nil {
			return fmt.Errorf("storage s3: %w", err)
		}
	}

	seen := make(map[string]bool, len(c.Issuers))
	for _, issuer := range c.Issuers {
		if seen[issuer.Name] {
			return fmt.Errorf("duplicate issuer %q", issuer.Name)
		}
		seen[issuer.Name] = true

		var err error
		switch issuer.Source.Kind {
		case "http":
			err = validate.Struct(issuer.Source.HTTPConfig)
		case "file":
			err = validate.Struct(issuer.Source.fileConfig())
		}
		if err != nil {
			return fmt.Errorf("issuer %s: source: %w", issuer.Name, err)
		}
	}
	return nil
}

func (s SourceConfig) fileConfig() source.FileConfig {
	return source.FileConfig{Path: s.Path, Field: s.Field}
}

// NewStorage returns the snapshot storage selected by Storage.Kind.
func (c Config) NewStorage() (storage.Storage, error) {
	switch c.Storage.Kind {
	case "file":
		return storage.NewFileFromConfig(storage.FileConfig{Path: c.DataDir}), nil
	case "memory":
		return storage.NewMemory(), nil
	case "kubernetes":
		return storage.NewKubernetesFromConfig(c.Storage.Kubernetes)
	case "vault":
		return storage.NewVaultFromConfig(c.Storage.Vault)
	case "awssecretsmanager":
		return storage.NewAWSSecretsManagerFromConfig(c.Storage.AWS)
	case "s3":
		return storage.NewS3FromConfig(c.Storage.S3)
	default:
		return nil, fmt.Errorf("unknown storage kind %q", c.Storage.Kind)
	}
}

// NewSource returns the certificate source of the issuer.
func (i IssuerConfig) NewSource() (certcache.Source, error) {
	switch i.Source.Kind {
	case "http":
		return source.NewHTTP(i.Source.HTTPConfig), nil
	case "file":
		return source.NewFile(afero.NewOsFs(), i.Source.fileConfig()), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q for issuer %s", i.Source.Kind, i.Name)
	}
}

// NewGroup creates an engine for every issuer, all sharing st.
func (c Config) NewGroup(st storage.Storage) (*certcache.Group, error) {
	engines := make([]*certcache.Engine, 0, len(c.Issuers))
	for _, issuer := range c.Issuers {
		src, err := issuer.NewSource()
		if err != nil {
			return nil, err
		}

		refreshAt := c.RefreshAt
		e, err := certcache.New(certcache.Options{
			Issuer:      issuer.Name,
			Filename:    issuer.Filename,
			Source:      src,
			Storage:     st,
			RefreshAt:   &refreshAt,
			ParsePolicy: c.ParsePolicy,
		})
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}
	return certcache.NewGroup(engines...)
}
