// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/eclipse/paho.golang/paho"
	"github.com/iancoleman/strcase"
	"github.com/sondehub/sondehub-go/internal/log"
)

// Logger adds MQTT packet logging to the shared logger.
type Logger struct{ log.Logger }

// Packet logs the exported fields of a paho packet at debug level.
func (l Logger) Packet(ctx context.Context, name string, packet any) {
	// Reflection is costly; skip it unless the record will be emitted.
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}

	val := realValue(reflect.ValueOf(packet))
	if missingValue(val) {
		l.Warn(ctx, fmt.Sprintf("%s not available", name))
		return
	}
	l.Debug(ctx, name, packetAttrs(val)...)
}

func packetAttrs(val reflect.Value) []slog.Attr {
	typ := val.Type()
	var attrs []slog.Attr
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}

		attrs = append(attrs, packetAttr(
			strcase.ToSnake(f.Name),
			realValue(val.Field(i)),
		)...)
	}
	return attrs
}

func packetAttr(name string, val reflect.Value) []slog.Attr {
	if missingValue(val) {
		return nil
	}

	switch name {
	case "properties":
		return packetAttrs(val)

	// The client sends one filter per SUBSCRIBE and UNSUBSCRIBE.
	case "subscriptions":
		if subs, ok := val.Interface().([]paho.SubscribeOptions); ok && len(subs) > 0 {
			return packetAttrs(reflect.ValueOf(subs[0]))
		}
	case "topics":
		if topics, ok := val.Interface().([]string); ok && len(topics) > 0 {
			return []slog.Attr{slog.String("topic", topics[0])}
		}
	case "reasons":
		if reasons, ok := val.Interface().([]byte); ok && len(reasons) > 0 {
			return []slog.Attr{slog.Int("reason_code", int(reasons[0]))}
		}

	// strcase splits QoS into two words.
	case "qo_s":
		return []slog.Attr{slog.Any("qos", val.Interface())}

	// Payloads are logged by the message path, not here.
	case "payload":
		return []slog.Attr{slog.Int("payload_size", val.Len())}
	}

	switch v := val.Interface().(type) {
	case []byte:
		return []slog.Attr{slog.String(name, string(v))}

	case paho.UserProperties:
		attrs := make([]any, len(v))
		for i, p := range v {
			attrs[i] = slog.String(p.Key, p.Value)
		}
		return []slog.Attr{slog.Group(name, attrs...)}
	}

	if val.Kind() == reflect.Struct {
		as := packetAttrs(val)
		if len(as) == 0 {
			return nil
		}

		group := make([]any, len(as))
		for i, a := range as {
			group[i] = a
		}
		return []slog.Attr{slog.Group(name, group...)}
	}

	return []slog.Attr{slog.Any(name, val.Interface())}
}

func realValue(val reflect.Value) reflect.Value {
	for val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	return val
}

func missingValue(val reflect.Value) bool {
	return val.Kind() == reflect.Invalid || val.IsZero()
}
