package rabbitmq

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/processor"
)

// Property names understood by the publisher. Anything else is ignored on publish.
const (
	PropertyContentType     = "content_type"
	PropertyContentEncoding = "content_encoding"
	PropertyDeliveryMode    = "delivery_mode"
	PropertyPriority        = "priority"
	PropertyCorrelationID   = "correlation_id"
	PropertyReplyTo         = "reply_to"
	PropertyExpiration      = "expiration"
	PropertyMessageID       = "message_id"
	PropertyTimestamp       = "timestamp"
	PropertyType            = "type"
	PropertyUserID          = "user_id"
	PropertyAppID           = "app_id"

	// PropertyApplicationHeaders holds legacy typed headers as name -> [type, value] pairs.
	PropertyApplicationHeaders = "application_headers"

	arrayFieldType = "A"
)

// FromDelivery converts a delivery into a message carrying the delivery tag.
// Empty properties are left out.
func FromDelivery(d amqp.Delivery) broker.Message {
	props := broker.Properties{}

	setString(props, PropertyContentType, d.ContentType)
	setString(props, PropertyContentEncoding, d.ContentEncoding)
	setString(props, PropertyCorrelationID, d.CorrelationId)
	setString(props, PropertyReplyTo, d.ReplyTo)
	setString(props, PropertyExpiration, d.Expiration)
	setString(props, PropertyMessageID, d.MessageId)
	setString(props, PropertyType, d.Type)
	setString(props, PropertyUserID, d.UserId)
	setString(props, PropertyAppID, d.AppId)

	if d.DeliveryMode != 0 {
		props[PropertyDeliveryMode] = int(d.DeliveryMode)
	}

	if d.Priority != 0 {
		props[PropertyPriority] = int(d.Priority)
	}

	if !d.Timestamp.IsZero() {
		props[PropertyTimestamp] = d.Timestamp
	}

	if len(d.Headers) > 0 {
		props[broker.HeadersProperty] = fromTable(d.Headers)
	}

	return broker.NewMessage(d.Body, props, broker.WithDeliveryTag(d.DeliveryTag))
}

// ToPublishing converts a message into an AMQP publishing.
//
// Headers holding arrays or tables are dropped. Legacy application_headers pairs
// are merged into the headers, except array-typed ones; plain headers win on conflict.
// A delivery_mode of 0 means unset.
func ToPublishing(msg broker.Message) amqp.Publishing {
	props := msg.Properties()

	p := amqp.Publishing{
		ContentType:     stringProperty(props, PropertyContentType),
		ContentEncoding: stringProperty(props, PropertyContentEncoding),
		CorrelationId:   stringProperty(props, PropertyCorrelationID),
		ReplyTo:         stringProperty(props, PropertyReplyTo),
		Expiration:      stringProperty(props, PropertyExpiration),
		MessageId:       stringProperty(props, PropertyMessageID),
		Type:            stringProperty(props, PropertyType),
		UserId:          stringProperty(props, PropertyUserID),
		AppId:           stringProperty(props, PropertyAppID),
		Body:            msg.Body(),
	}

	if mode, ok := processor.ToInt(props[PropertyDeliveryMode]); ok && mode > 0 {
		p.DeliveryMode = uint8(mode)
	}

	if priority, ok := processor.ToInt(props[PropertyPriority]); ok && priority > 0 {
		p.Priority = uint8(priority)
	}

	switch ts := props[PropertyTimestamp].(type) {
	case time.Time:
		p.Timestamp = ts
	default:
		if seconds, ok := processor.ToInt(ts); ok {
			p.Timestamp = time.Unix(int64(seconds), 0)
		}
	}

	p.Headers = publishingHeaders(props)

	return p
}

func publishingHeaders(props broker.Properties) amqp.Table {
	headers := amqp.Table{}

	if legacy, ok := props[PropertyApplicationHeaders].(map[string]any); ok {
		for name, field := range legacy {
			pair, ok := field.([]any)
			if !ok || len(pair) != 2 {
				continue
			}

			if fieldType, _ := pair[0].(string); fieldType == arrayFieldType || isNested(pair[1]) {
				continue
			}

			headers[name] = pair[1]
		}
	}

	if plain, ok := props[broker.HeadersProperty].(map[string]any); ok {
		for name, value := range plain {
			if isNested(value) {
				continue
			}

			headers[name] = value
		}
	}

	if len(headers) == 0 {
		return nil
	}

	return headers
}

func isNested(value any) bool {
	switch value.(type) {
	case []any, []string, []int, map[string]any, map[string]string, broker.Properties, amqp.Table:
		return true
	default:
		return false
	}
}

func fromTable(t amqp.Table) map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = fromField(v)
	}

	return out
}

func fromField(v any) any {
	switch x := v.(type) {
	case amqp.Table:
		return fromTable(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = fromField(x[i])
		}

		return out
	default:
		return v
	}
}

func setString(props broker.Properties, name, value string) {
	if value != "" {
		props[name] = value
	}
}

func stringProperty(props broker.Properties, name string) string {
	s, _ := props[name].(string)

	return s
}
