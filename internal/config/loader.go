package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/kelseyhightower/envconfig"

	"github.com/architeacher/svc-message-retry/internal/ports"
)

var (
	ErrSecretStorageDisabled = errors.New("secret storage is not enabled")
	ErrInvalidSecretFormat   = errors.New("invalid secret format")
)

// Loader overlays secrets from Vault onto the service configuration and reloads them on demand.
type Loader struct {
	cfg              *ServiceConfig
	secretsRepo      ports.SecretsRepository
	configSignalChan chan os.Signal
	reloadErrors     chan error
	ticker           *time.Ticker
	lastVersion      uint
	dumpWriter       io.Writer
	retryDelay       time.Duration
}

// NewLoader creates a new config loader instance.
func NewLoader(cfg *ServiceConfig, secretsRepo ports.SecretsRepository, initialVersion uint) *Loader {
	return &Loader{
		cfg:              cfg,
		secretsRepo:      secretsRepo,
		configSignalChan: make(chan os.Signal, 1),
		reloadErrors:     make(chan error, 1),
		lastVersion:      initialVersion,
		dumpWriter:       os.Stdout,
		retryDelay:       time.Second,
	}
}

// Init config from environment variables.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.AppConfig.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.AppConfig.CommitSHA = CommitSHA
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings that the processor stack would otherwise reject per message.
func (c *ServiceConfig) Validate() error {
	var errs []error

	if c.Retry.Attempts < 0 {
		errs = append(errs, fmt.Errorf("RETRY_ATTEMPTS must be >= 0, got %d", c.Retry.Attempts))
	}

	if c.Retry.KeyPattern == "" {
		errs = append(errs, errors.New("RETRY_KEY_PATTERN is required"))
	}

	if c.Retry.Attempts > 0 && len(c.Retry.Delays) == 0 {
		errs = append(errs, errors.New("RETRY_DELAYS needs at least one delay"))
	}

	if c.Throttle.Enabled && c.Throttle.MaxMessagesPerSecond < 1 {
		errs = append(errs, fmt.Errorf("THROTTLE_MAX_MESSAGES_PER_SECOND must be > 0, got %d", c.Throttle.MaxMessagesPerSecond))
	}

	if c.Queue.QueueName == "" {
		errs = append(errs, errors.New("RABBITMQ_QUEUE_NAME is required"))
	}

	if _, err := c.ProcessorOptions(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// WatchConfigSignals monitors for SIGHUP (reload) and SIGUSR1 (dump) signals.
// It also starts a background ticker for periodic secret reloading if enabled.
// It returns a channel that will receive reload results for logging by the caller.
func (l *Loader) WatchConfigSignals(ctx context.Context) <-chan error {
	signal.Notify(l.configSignalChan, syscall.SIGHUP, syscall.SIGUSR1)

	if l.cfg.SecretStorage.Enabled && l.cfg.SecretStorage.PollInterval > 0 {
		l.ticker = time.NewTicker(l.cfg.SecretStorage.PollInterval)
	}

	go func() {
		defer signal.Stop(l.configSignalChan)
		defer close(l.reloadErrors)

		var reloadTickerChan <-chan time.Time
		if l.ticker != nil {
			defer l.ticker.Stop()
			reloadTickerChan = l.ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return

			case <-reloadTickerChan:
				l.handleConfigReload(ctx)

			case sig := <-l.configSignalChan:
				switch sig {
				case syscall.SIGHUP:
					l.handleConfigReload(ctx)

				case syscall.SIGUSR1:
					l.DumpConfig()
				}
			}
		}
	}()

	return l.reloadErrors
}

// DumpConfig writes the current configuration as JSON. Secrets are tagged omitempty and masked.
func (l *Loader) DumpConfig() {
	masked := *l.cfg
	masked.Queue.Password = mask(masked.Queue.Password)
	masked.Handler.AuthToken = mask(masked.Handler.AuthToken)
	masked.SecretStorage.Token = mask(masked.SecretStorage.Token)
	masked.SecretStorage.SecretID = mask(masked.SecretStorage.SecretID)

	configJSON, err := json.MarshalIndent(masked, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(l.dumpWriter, "Error marshaling config: %v\n", err)

		return
	}

	_, _ = fmt.Fprintf(l.dumpWriter, "\n=== Configuration Dump ===\n%s\n=== End Configuration ===\n\n", string(configJSON))
}

// Load authenticates against Vault, applies the stored secrets to cfg and returns the secret version.
func (l *Loader) Load(ctx context.Context, secretsRepo ports.SecretsRepository, cfg *ServiceConfig) (uint, error) {
	if !cfg.SecretStorage.Enabled {
		return 0, ErrSecretStorageDisabled
	}

	if err := l.authenticateVault(ctx, secretsRepo, cfg.SecretStorage); err != nil {
		return 0, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	secret, err := l.readSecret(ctx, secretsRepo, cfg.SecretStorage)
	if err != nil {
		return 0, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	data, err := secretSection(secret, "data")
	if err != nil {
		return 0, err
	}

	applySecretsToConfig(cfg, data)

	metadata, err := secretSection(secret, "metadata")
	if err != nil {
		return 0, err
	}

	version, err := secretVersion(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to get secret version: %w", err)
	}

	return version, nil
}

func (l *Loader) authenticateVault(ctx context.Context, client ports.SecretsRepository, config SecretStorageConfig) error {
	switch strings.ToLower(config.AuthMethod) {
	case "token":
		if config.Token == "" {
			return errors.New("token is required for token auth method")
		}

		client.SetToken(config.Token)

		return nil

	case "approle":
		if config.RoleID == "" || config.SecretID == "" {
			return errors.New("role_id and secret_id are required for approle auth method")
		}

		resp, err := client.WriteWithContext(ctx, "auth/approle/login", map[string]any{
			"role_id":   config.RoleID,
			"secret_id": config.SecretID,
		})
		if err != nil {
			return fmt.Errorf("failed to authenticate via approle: %w", err)
		}

		if resp == nil || resp.Auth == nil {
			return errors.New("no auth info returned from Vault")
		}

		client.SetToken(resp.Auth.ClientToken)

		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", config.AuthMethod)
	}
}

func (l *Loader) handleConfigReload(ctx context.Context) {
	secret, err := l.readSecret(ctx, l.secretsRepo, l.cfg.SecretStorage)
	if err != nil {
		l.reportReloadStatus(fmt.Errorf("failed to load secret metadata: %w", err))

		return
	}

	metadata, err := secretSection(secret, "metadata")
	if err != nil {
		l.reportReloadStatus(err)

		return
	}

	currentVersion, err := secretVersion(metadata)
	if err != nil {
		l.reportReloadStatus(fmt.Errorf("failed to get secret version: %w", err))

		return
	}

	if currentVersion == l.lastVersion {
		return
	}

	version, err := l.Load(ctx, l.secretsRepo, l.cfg)
	if err != nil {
		l.reportReloadStatus(err)

		return
	}

	l.lastVersion = version
	l.reportReloadStatus(nil)
}

// readSecret reads the KV v2 secret of the service, retrying with a linearly growing delay.
func (l *Loader) readSecret(ctx context.Context, secretsRepo ports.SecretsRepository, cfg SecretStorageConfig) (*api.Secret, error) {
	path := fmt.Sprintf("apps/data/%s", cfg.MountPath)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var (
		secret *api.Secret
		err    error
	)

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		secret, err = secretsRepo.GetSecrets(ctx, path)
		if err == nil {
			return secret, nil
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to read from path %s: %w", path, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * l.retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to read from path %s after %d retries: %w", path, cfg.MaxRetries, err)
}

// secretSection returns secret.Data[section]; KV v2 nests the values under "data" and "metadata".
func secretSection(secret *api.Secret, section string) (map[string]any, error) {
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	result, ok := secret.Data[section].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", ErrInvalidSecretFormat, section)
	}

	return result, nil
}

func secretVersion(metadata map[string]any) (uint, error) {
	if metadata == nil {
		return 0, nil
	}

	currentVersion, ok := metadata["current_version"]
	if !ok {
		return 0, nil
	}

	switch v := currentVersion.(type) {
	case float64:
		return uint(v), nil
	case uint:
		return v, nil
	case int:
		return uint(v), nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("failed to parse version: %w", err)
		}

		return uint(version), nil
	default:
		return 0, fmt.Errorf("unexpected version type: %T", currentVersion)
	}
}

// applySecretsToConfig applies the flat key-value pairs stored in Vault. Unknown keys are ignored.
func applySecretsToConfig(cfg *ServiceConfig, data map[string]any) {
	for key, value := range data {
		strValue, ok := value.(string)
		if !ok || strValue == "" {
			continue
		}

		switch key {
		case "RABBITMQ_USERNAME":
			cfg.Queue.Username = strValue
		case "RABBITMQ_PASSWORD":
			cfg.Queue.Password = strValue
		case "RABBITMQ_HOST":
			cfg.Queue.Host = strValue
		case "RABBITMQ_VIRTUAL_HOST":
			cfg.Queue.VirtualHost = strValue
		case "HANDLER_URL":
			cfg.Handler.URL = strValue
		case "HANDLER_AUTH_TOKEN":
			cfg.Handler.AuthToken = strValue
		}
	}
}

// reportReloadStatus sends reload status (error or nil for success) to reloadErrors channel.
// It uses non-blocking send to avoid blocking if no receiver is ready.
func (l *Loader) reportReloadStatus(err error) {
	select {
	case l.reloadErrors <- err:
	default:
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}
