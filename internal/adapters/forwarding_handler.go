package adapters

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/architeacher/svc-message-retry/internal/config"
	"github.com/architeacher/svc-message-retry/internal/infrastructure"
	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/errkind"
	"github.com/architeacher/svc-message-retry/pkg/processor"
	"github.com/architeacher/svc-message-retry/pkg/processor/retry"
)

// Error kinds reported by the forwarding handler. Retry log level rules can name
// either the specific kind or one of its parents.
const (
	KindTransient errkind.Kind = "transient"
	KindPermanent errkind.Kind = "permanent"

	KindHandlerUnreachable errkind.Kind = "handler.unreachable"
	KindHandlerServerError errkind.Kind = "handler.server_error"
	KindHandlerThrottled   errkind.Kind = "handler.throttled"
	KindHandlerRejected    errkind.Kind = "handler.rejected"
)

const (
	defaultContentType = "application/octet-stream"

	HeaderMessageID     = "X-Message-Id"
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderAttempts      = "X-Retry-Attempts"
)

// ForwardingHandler delivers message bodies to a downstream HTTP endpoint.
// Any non 2xx answer is turned into a kinded error.
type ForwardingHandler struct {
	client *resty.Client
	logger infrastructure.Logger
	config config.HandlerConfig
}

func NewForwardingHandler(cfg config.HandlerConfig, logger infrastructure.Logger) *ForwardingHandler {
	client := resty.New()

	client.SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})).
		SetHeader("User-Agent", cfg.UserAgent)

	if cfg.AuthToken != "" {
		client.SetAuthToken(cfg.AuthToken)
	}

	return &ForwardingHandler{
		client: client,
		logger: infrastructure.Logger{Logger: logger.Component("forwarding_handler")},
		config: cfg,
	}
}

func (h *ForwardingHandler) Process(ctx context.Context, msg broker.Message, _ processor.Options) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeaderMultiValues(h.requestHeaders(ctx, msg)).
		SetBody(msg.Body()).
		Post(h.config.URL)
	if err != nil {
		return errkind.Wrap(
			fmt.Errorf("failed to reach handler: %w", err),
			KindHandlerUnreachable,
			KindTransient,
		)
	}

	h.logger.Debug().
		Int("status_code", resp.StatusCode()).
		Int64("duration_ms", resp.Time().Milliseconds()).
		Msg("handler responded")

	return classify(resp.StatusCode(), resp.Status())
}

func (h *ForwardingHandler) requestHeaders(ctx context.Context, msg broker.Message) map[string][]string {
	headers := http.Header{}

	contentType := stringProperty(msg, "content_type")
	if contentType == "" {
		contentType = defaultContentType
	}

	headers.Set("Content-Type", contentType)
	headers.Set(HeaderAttempts, strconv.Itoa(retry.Attempts(msg)))

	if id := stringProperty(msg, "message_id"); id != "" {
		headers.Set(HeaderMessageID, id)
	}

	if id := stringProperty(msg, "correlation_id"); id != "" {
		headers.Set(HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))

	return headers
}

func classify(code int, status string) error {
	msg := fmt.Sprintf("handler responded with %s", status)

	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return nil
	case code == http.StatusTooManyRequests:
		return errkind.New(KindHandlerThrottled, msg, KindTransient)
	case code == http.StatusRequestTimeout, code >= http.StatusInternalServerError:
		return errkind.New(KindHandlerServerError, msg, KindTransient)
	default:
		return errkind.New(KindHandlerRejected, msg, KindPermanent)
	}
}

func stringProperty(msg broker.Message, name string) string {
	v, ok := msg.Property(name)
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}
