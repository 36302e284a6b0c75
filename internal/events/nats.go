// AngelaMos | 2026
// nats.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/carterperez-dev/templates/campus-market/internal/config"
)

var tracer = otel.Tracer("campus-market/events")

type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

func NewNATSPublisher(
	cfg config.NATSConfig,
	appName string,
	logger *slog.Logger,
) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(appName + " publisher"),
		nats.Timeout(cfg.Timeout),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats error", "subject", subject, "error", err)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}, nil
}

func (p *NATSPublisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, eventType string, data any) error {
	subject := p.Subject(eventType)

	ctx, span := tracer.Start(ctx, "nats.publish "+subject)
	defer span.End()

	body, err := json.Marshal(NewEnvelope(eventType, data))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = body
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(msg.Header))

	if err := p.conn.PublishMsg(msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.DebugContext(ctx, "event published",
		"subject", subject,
		"bytes", len(body),
	)
	return nil
}

func (p *NATSPublisher) Ping(context.Context) error {
	if p.conn == nil || !p.conn.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Error("nats drain failed", "error", err)
		p.conn.Close()
	}
}

type headerCarrier nats.Header

func (c headerCarrier) Get(key string) string {
	return nats.Header(c).Get(key)
}

func (c headerCarrier) Set(key, value string) {
	nats.Header(c).Set(key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
