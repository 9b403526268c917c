package notifier

import (
	"encoding/json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"strings"
	"time"
)

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier mirrors hub broadcasts to NATS so other services can follow games
// without holding a websocket.
type Notifier struct {
	pub    Publisher
	prefix string
	log    zerolog.Logger
	conn   *nats.Conn
}

func New(pub Publisher, prefix string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		pub:    pub,
		prefix: prefix,
		log:    logger.With().Str("component", "notifier").Logger(),
	}
}

func Connect(url, prefix string, logger zerolog.Logger) (*Notifier, error) {
	n := New(nil, prefix, logger)
	nc, err := nats.Connect(url,
		nats.Name("old-maid-server"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			n.log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			n.log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	n.pub = nc
	n.conn = nc
	n.log.Info().Str("url", url).Msg("NATS mirror enabled")
	return n, nil
}

// Subject maps a hub group and event to a NATS subject, e.g. game:abc and
// s:game:changed become <prefix>.game.abc.s.game.changed.
func Subject(prefix, group, event string) string {
	return prefix + "." + strings.ReplaceAll(group, ":", ".") + "." + strings.ReplaceAll(event, ":", ".")
}

// Publish never fails the broadcast it mirrors; errors are logged.
func (n *Notifier) Publish(group, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.log.Error().Err(err).Str("event", event).Msg("encode mirrored event")
		return
	}
	subject := Subject(n.prefix, group, event)
	if err := n.pub.Publish(subject, data); err != nil {
		n.log.Warn().Err(err).Str("subject", subject).Msg("publish")
	}
}

func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
