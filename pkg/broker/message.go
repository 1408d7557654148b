package broker

import (
	"maps"
	"reflect"
)

// HeadersProperty is the property holding application headers.
const HeadersProperty = "headers"

type (
	// Properties maps property names to scalar values or nested mappings.
	Properties map[string]any

	// Message is an immutable message value: a body plus its properties.
	// Messages read from a queue also carry the delivery tag of that delivery.
	Message struct {
		body        []byte
		properties  Properties
		deliveryTag uint64
		delivered   bool
	}

	// MessageOption configures a NewMessage call.
	MessageOption func(*Message)
)

// WithDeliveryTag returns a MessageOption which marks the message as a delivery from a live queue.
func WithDeliveryTag(tag uint64) MessageOption {
	return func(m *Message) {
		m.deliveryTag = tag
		m.delivered = true
	}
}

// NewMessage creates a message. A nil properties map is treated as empty.
// The properties are copied, so later changes to the argument do not affect the message.
// Headers given as any string-keyed map are stored as map[string]any.
func NewMessage(body []byte, properties Properties, opts ...MessageOption) Message {
	m := Message{
		body:       body,
		properties: cloneProperties(properties),
	}

	if headers, ok := headersOf(m.properties[HeadersProperty]); ok {
		m.properties[HeadersProperty] = headers
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Body returns the payload. The returned slice must not be modified.
func (m Message) Body() []byte {
	return m.body
}

// Properties returns a copy of the message properties.
func (m Message) Properties() Properties {
	return cloneProperties(m.properties)
}

// Property returns a single property value.
func (m Message) Property(name string) (any, bool) {
	v, ok := m.properties[name]

	return v, ok
}

// Headers returns a copy of the application headers, or an empty map when there are none.
func (m Message) Headers() map[string]any {
	headers, _ := m.properties[HeadersProperty].(map[string]any)

	return cloneMap(headers)
}

// Header returns a single application header.
func (m Message) Header(key string) (any, bool) {
	headers, ok := m.properties[HeadersProperty].(map[string]any)
	if !ok {
		return nil, false
	}

	v, ok := headers[key]

	return v, ok
}

// DeliveryTag returns the broker handle of the delivery this message came from.
// The boolean is false for messages that were not read from a queue.
func (m Message) DeliveryTag() (uint64, bool) {
	return m.deliveryTag, m.delivered
}

// WithProperties returns a new message with the same body and the given properties.
// The returned message is a new delivery and carries no delivery tag.
func (m Message) WithProperties(properties Properties) Message {
	return NewMessage(m.body, properties)
}

// WithHeader returns a new message whose headers equal the receiver's with key set to value.
// Every other property and header is kept. The returned message carries no delivery tag.
func (m Message) WithHeader(key string, value any) Message {
	properties := cloneProperties(m.properties)

	headers, _ := properties[HeadersProperty].(map[string]any)
	if headers == nil {
		headers = make(map[string]any, 1)
	}

	headers[key] = value
	properties[HeadersProperty] = headers

	return Message{
		body:       m.body,
		properties: properties,
	}
}

func headersOf(v any) (map[string]any, bool) {
	switch h := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return h, true
	case Properties:
		return map[string]any(h), true
	case map[string]string:
		out := make(map[string]any, len(h))
		for k, s := range h {
			out[k] = s
		}

		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	for iter := rv.MapRange(); iter.Next(); {
		out[iter.Key().String()] = cloneValue(iter.Value().Interface())
	}

	return out, true
}

func cloneProperties(p Properties) Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case Properties:
		return cloneProperties(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}

		return out
	case []byte:
		return append([]byte(nil), x...)
	case map[string]string:
		return maps.Clone(x)
	default:
		return v
	}
}
