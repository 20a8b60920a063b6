package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"

	vault "github.com/hashicorp/vault/api"
)

var _ Storage = &Vault{}

// Vault stores snapshots in a KV version 2 secrets engine. Each snapshot is
// a single secret version, so a write replaces the value as a whole.
type Vault struct {
	VaultConfig
	client *vault.Client
}

type VaultConfig struct {
	Address   string `config:"address" validate:"required,url"`
	Token     string `config:"token" validate:"required"`
	Namespace string `config:"namespace"`
	Mount     string `config:"mount"`  // defaults to secret
	Prefix    string `config:"prefix"` // defaults to trustlist
}

func NewVaultConfig() VaultConfig {
	return VaultConfig{
		Address: "https://vault",
		Mount:   "secret",
		Prefix:  "trustlist",
	}
}

func NewVaultFromConfig(cfg VaultConfig) (*Vault, error) {
	c, err := vault.NewClient(&vault.Config{
		Address: cfg.Address,
	})
	if err != nil {
		return nil, err
	}

	c.SetToken(cfg.Token)

	if len(cfg.Namespace) > 0 {
		c.SetNamespace(cfg.Namespace)
	}

	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}

	return &Vault{VaultConfig: cfg, client: c}, nil
}

func (v *Vault) secretPath(key string) string {
	return path.Join(v.Mount, "data", v.Prefix, sanitizeKey(key))
}

func (v *Vault) Read(ctx context.Context, key string) ([]byte, error) {
	sec, err := v.client.Logical().ReadWithContext(ctx, v.secretPath(key))
	if err != nil {
		return nil, fmt.Errorf("vault: read: %w", err)
	}

	if sec == nil || sec.Data == nil {
		return nil, ErrNotFound
	}

	data, ok := sec.Data["data"].(map[string]interface{})
	if !ok || data == nil {
		// deleted versions have metadata but no data
		return nil, ErrNotFound
	}

	encoded, ok := data["snapshot"].(string)
	if !ok {
		return nil, fmt.Errorf("vault: snapshot is not a string")
	}

	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("vault: decoding snapshot: %w", err)
	}
	return b, nil
}

func (v *Vault) Write(ctx context.Context, key string, data []byte) error {
	_, err := v.client.Logical().WriteWithContext(ctx, v.secretPath(key), map[string]interface{}{
		"data": map[string]interface{}{
			"snapshot": base64.StdEncoding.EncodeToString(data),
		},
	})
	if err != nil {
		return fmt.Errorf("vault: write: %w", err)
	}
	return nil
}
