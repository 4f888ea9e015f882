package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gosimple/slug"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Sink receives committed events after the in-process hub.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL            string
	Name           string
	SubjectPrefix  string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

// NATSSink publishes every event on <prefix>.<event-slug>.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

func ConnectNATS(cfg NATSConfig, log *zap.Logger) (*NATSSink, error) {
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	log = log.Named("events.nats")

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewNATSSink(conn, cfg.SubjectPrefix, log), nil
}

func NewNATSSink(conn *nats.Conn, prefix string, log *zap.Logger) *NATSSink {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "flightsurety.events"
	}
	return &NATSSink{conn: conn, prefix: prefix, log: log}
}

func (s *NATSSink) Publish(ctx context.Context, event Event) error {
	if s == nil || s.conn == nil {
		return fmt.Errorf("not connected")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(Subject(s.prefix, event.Name))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.ID.String())
	if event.CorrelationID != "" {
		msg.Header.Set("X-Correlation-Id", event.CorrelationID)
	}
	return s.conn.PublishMsg(msg)
}

// Close drains pending publishes.
func (s *NATSSink) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

// Subject builds the NATS subject for an event name, e.g. FundedByAirline -> <prefix>.funded-by-airline.
func Subject(prefix string, name Name) string {
	return prefix + "." + slug.Make(splitCamel(string(name)))
}

func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
