package config

import (
	"time"
)

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

type (
	ServiceConfig struct {
		AppConfig      AppConfig            `json:"app_config"`
		Logging        LoggingConfig        `json:"logging"`
		Telemetry      Telemetry            `json:"telemetry"`
		SecretStorage  SecretStorageConfig  `json:"secret_storage"`
		Queue          QueueConfig          `json:"queue"`
		Retry          RetryConfig          `json:"retry"`
		Throttle       ThrottleConfig       `json:"throttle"`
		CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
		Backoff        BackoffConfig        `json:"backoff"`
		Handler        HandlerConfig        `json:"handler"`
		OpsServer      OpsServerConfig      `json:"ops_server"`
	}

	AppConfig struct {
		ServiceName    string `envconfig:"APP_SERVICE_NAME" default:"svc-message-retry" json:"service_name"`
		ServiceVersion string `envconfig:"APP_SERVICE_VERSION" default:"0.0.0" json:"service_version"`
		CommitSHA      string `envconfig:"APP_COMMIT_SHA" default:"unknown" json:"commit_sha"`
		Env            string `envconfig:"APP_ENVIRONMENT" default:"unknown" json:"env"`
	}

	LoggingConfig struct {
		Level  string `envconfig:"LOGGING_LEVEL" default:"info" json:"level"`
		Format string `envconfig:"LOGGING_FORMAT" default:"json" json:"format"`
	}

	Telemetry struct {
		ExporterType string `envconfig:"OTEL_EXPORTER" default:"grpc" json:"exporter_type"`

		OtelGRPCHost       string `envconfig:"OTEL_HOST" json:"otel_grpc_host"`
		OtelGRPCPort       string `envconfig:"OTEL_PORT" default:"4317" json:"otel_grpc_port"`
		OtelProductCluster string `envconfig:"OTEL_PRODUCT_CLUSTER" json:"otel_product_cluster"`

		Metrics Metrics `json:"metrics"`
		Traces  Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1" json:"sampler_ratio"`
	}

	SecretStorageConfig struct {
		Enabled       bool          `envconfig:"VAULT_ENABLED" default:"false" json:"enabled"`
		Address       string        `envconfig:"VAULT_ADDRESS" default:"http://vault:8200" json:"address"`
		Token         string        `envconfig:"VAULT_TOKEN" default:"" json:"token,omitempty"`
		RoleID        string        `envconfig:"VAULT_ROLE_ID" default:"" json:"role_id,omitempty"`
		SecretID      string        `envconfig:"VAULT_SECRET_ID" default:"" json:"secret_id,omitempty"`
		AuthMethod    string        `envconfig:"VAULT_AUTH_METHOD" default:"token" json:"auth_method"`
		MountPath     string        `envconfig:"VAULT_MOUNT_PATH" default:"svc-message-retry" json:"mount_path"`
		Namespace     string        `envconfig:"VAULT_NAMESPACE" default:"" json:"namespace,omitempty"`
		Timeout       time.Duration `envconfig:"VAULT_TIMEOUT" default:"30s" json:"timeout"`
		MaxRetries    int           `envconfig:"VAULT_MAX_RETRIES" default:"3" json:"max_retries"`
		TLSSkipVerify bool          `envconfig:"VAULT_TLS_SKIP_VERIFY" default:"false" json:"tls_skip_verify"`
		PollInterval  time.Duration `envconfig:"VAULT_POLL_INTERVAL" default:"24h" json:"poll_interval"`
	}

	QueueConfig struct {
		Scheme            string        `envconfig:"RABBITMQ_SCHEME" default:"amqp" json:"scheme"`
		Host              string        `envconfig:"RABBITMQ_HOST" default:"rabbitmq" json:"host"`
		Port              int           `envconfig:"RABBITMQ_PORT" default:"5672" json:"port"`
		Username          string        `envconfig:"RABBITMQ_USERNAME" default:"guest" json:"username"`
		Password          string        `envconfig:"RABBITMQ_PASSWORD" default:"guest" json:"password,omitempty"`
		VirtualHost       string        `envconfig:"RABBITMQ_VIRTUAL_HOST" default:"/" json:"virtual_host"`
		QueueName         string        `envconfig:"RABBITMQ_QUEUE_NAME" default:"messages" json:"queue_name"`
		RetryExchange     string        `envconfig:"RABBITMQ_RETRY_EXCHANGE" default:"retry" json:"retry_exchange"`
		RetryQueuePrefix  string        `envconfig:"RABBITMQ_RETRY_QUEUE_PREFIX" default:"" json:"retry_queue_prefix"`
		DeclareTopology   bool          `envconfig:"RABBITMQ_DECLARE_TOPOLOGY" default:"true" json:"declare_topology"`
		ConnectTimeout    time.Duration `envconfig:"RABBITMQ_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
		Heartbeat         time.Duration `envconfig:"RABBITMQ_HEARTBEAT" default:"10s" json:"heartbeat"`
		PrefetchCount     int           `envconfig:"RABBITMQ_PREFETCH_COUNT" default:"1" json:"prefetch_count"`
		PublisherConfirms bool          `envconfig:"QUEUE_PUBLISHER_CONFIRMS" default:"true" json:"publisher_confirms"`
		ConfirmTimeout    time.Duration `envconfig:"QUEUE_CONFIRM_TIMEOUT" default:"5s" json:"confirm_timeout"`
	}

	RetryConfig struct {
		Attempts   int    `envconfig:"RETRY_ATTEMPTS" default:"3" json:"attempts"`
		KeyPattern string `envconfig:"RETRY_KEY_PATTERN" default:"retry_%attempt%" json:"key_pattern"`
		// LogLevels and FailLogLevels are ordered kind:level pairs; the first matching kind wins.
		LogLevels     []string        `envconfig:"RETRY_LOG_LEVELS" json:"log_levels"`
		FailLogLevels []string        `envconfig:"RETRY_FAIL_LOG_LEVELS" json:"fail_log_levels"`
		Delays        []time.Duration `envconfig:"RETRY_DELAYS" default:"1s,10s,1m" json:"delays"`
	}

	ThrottleConfig struct {
		Enabled              bool `envconfig:"THROTTLE_ENABLED" default:"true" json:"enabled"`
		MaxMessagesPerSecond int  `envconfig:"THROTTLE_MAX_MESSAGES_PER_SECOND" default:"100" json:"max_messages_per_second"`
	}

	CircuitBreakerConfig struct {
		Enabled bool `envconfig:"CIRCUIT_BREAKER_ENABLED" default:"true" json:"enabled"`
		// MaxRequests is the number of requests allowed through while half-open.
		MaxRequests uint32        `envconfig:"CIRCUIT_BREAKER_MAX_REQUESTS" default:"3" json:"max_requests"`
		Interval    time.Duration `envconfig:"CIRCUIT_BREAKER_INTERVAL" default:"10s" json:"interval"`
		Timeout     time.Duration `envconfig:"CIRCUIT_BREAKER_TIMEOUT" default:"60s" json:"timeout"`
		// ConsecutiveFailures trips the breaker.
		ConsecutiveFailures uint32 `envconfig:"CIRCUIT_BREAKER_CONSECUTIVE_FAILURES" default:"5" json:"consecutive_failures"`
	}

	BackoffConfig struct {
		// BaseDelay is the amount of time to wait after the first empty poll.
		BaseDelay time.Duration `envconfig:"BACKOFF_BASE_DELAY" default:"100ms" json:"base_delay"`
		// Multiplier is the factor with which to multiply delays after each
		// further empty poll. Should ideally be greater than 1.
		Multiplier float64 `envconfig:"BACKOFF_MULTIPLIER" default:"1.6" json:"multiplier"`
		// Jitter is the factor with which delays are randomized.
		Jitter float64 `envconfig:"BACKOFF_JITTER" default:"0.2" json:"jitter"`
		// MaxDelay is the upper bound of the delay.
		MaxDelay time.Duration `envconfig:"BACKOFF_MAX_DELAY" default:"5s" json:"max_delay"`
	}

	HandlerConfig struct {
		URL       string        `envconfig:"HANDLER_URL" default:"http://localhost:8080/messages" json:"url"`
		Timeout   time.Duration `envconfig:"HANDLER_TIMEOUT" default:"10s" json:"timeout"`
		AuthToken string        `envconfig:"HANDLER_AUTH_TOKEN" default:"" json:"auth_token,omitempty"`
		UserAgent string        `envconfig:"HANDLER_USER_AGENT" default:"svc-message-retry/1.0" json:"user_agent"`
	}

	OpsServerConfig struct {
		Enabled         bool          `envconfig:"OPS_SERVER_ENABLED" default:"true" json:"enabled"`
		Host            string        `envconfig:"OPS_SERVER_HOST" default:"0.0.0.0" json:"host"`
		Port            int           `envconfig:"OPS_SERVER_PORT" default:"8089" json:"port"`
		ReadTimeout     time.Duration `envconfig:"OPS_SERVER_READ_TIMEOUT" default:"5s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"OPS_SERVER_WRITE_TIMEOUT" default:"10s" json:"write_timeout"`
		ShutdownTimeout time.Duration `envconfig:"OPS_SERVER_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
	}
)

// DelayQueuePrefix returns the prefix of the delay queues, derived from the source queue when unset.
func (c QueueConfig) DelayQueuePrefix() string {
	if c.RetryQueuePrefix != "" {
		return c.RetryQueuePrefix
	}

	return c.QueueName + "_retry"
}
