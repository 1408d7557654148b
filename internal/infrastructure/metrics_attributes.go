package infrastructure

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	outcomeKey     = "outcome"
	errorKindKey   = "error.kind"
	routingKeyKey  = "messaging.rabbitmq.routing_key"
	statusKey      = "status"
	breakerKey     = "breaker"
	breakerFromKey = "breaker.from"
	breakerToKey   = "breaker.to"
)

func OutcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(outcomeKey, outcome)
}

// ErrorKindAttr reports "none" for an empty kind so series stay bounded and explicit.
func ErrorKindAttr(kind string) attribute.KeyValue {
	if kind == "" {
		kind = "none"
	}

	return attribute.String(errorKindKey, kind)
}

func RoutingKeyAttr(key string) attribute.KeyValue {
	return attribute.String(routingKeyKey, key)
}

func StatusAttr(status string) attribute.KeyValue {
	return attribute.String(statusKey, status)
}

func BreakerAttr(name string) attribute.KeyValue {
	return attribute.String(breakerKey, name)
}

func BreakerFromAttr(state string) attribute.KeyValue {
	return attribute.String(breakerFromKey, state)
}

func BreakerToAttr(state string) attribute.KeyValue {
	return attribute.String(breakerToKey, state)
}
