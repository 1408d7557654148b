package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/architeacher/svc-message-retry/internal/ports"
)

var ErrVaultSealed = errors.New("vault is sealed")

var _ ports.SecretsRepository = (*VaultRepository)(nil)

// VaultRepository reads the service secrets from a Vault KV engine.
type VaultRepository struct {
	vaultClient *api.Client
}

func NewVaultRepository(vaultClient *api.Client) *VaultRepository {
	return &VaultRepository{
		vaultClient: vaultClient,
	}
}

func (r *VaultRepository) SetToken(v string) {
	r.vaultClient.SetToken(v)
}

func (r *VaultRepository) GetSecrets(ctx context.Context, path string) (*api.Secret, error) {
	return r.vaultClient.Logical().ReadWithContext(ctx, path)
}

func (r *VaultRepository) WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error) {
	return r.vaultClient.Logical().WriteWithContext(ctx, path, data)
}

func (r *VaultRepository) Healthy(ctx context.Context) error {
	health, err := r.vaultClient.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query vault health: %w", err)
	}

	if health.Sealed {
		return ErrVaultSealed
	}

	return nil
}
