package source

import (
	"strings"
	"sync"

	natspkg "github.com/nats-io/nats.go"

	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

type Config struct {
	// URL is the NATS server address (default nats.DefaultURL).
	URL string
	// SubjectPrefix prefixes the change subjects (default "store").
	// Subjects: <prefix>.notifications.created, <prefix>.chats.updated,
	// <prefix>.chats.appended.
	SubjectPrefix string
	// Buffer bounds undelivered events (default 256). The runner should
	// normally keep up; overflow is dropped and logged.
	Buffer int
}

// NATSSource consumes store change envelopes from NATS subjects.
type NATSSource struct {
	nc     *natspkg.Conn
	subs   []*natspkg.Subscription
	events chan store.Event
	log    logx.Logger

	closeOnce sync.Once
}

func ConnectNATS(cfg Config, log logx.Logger) (*NATSSource, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	url := cfg.URL
	if strings.TrimSpace(url) == "" {
		url = natspkg.DefaultURL
	}
	prefix := cfg.SubjectPrefix
	if strings.TrimSpace(prefix) == "" {
		prefix = "store"
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 256
	}

	nc, err := natspkg.Connect(url,
		natspkg.Name("pushfan"),
		natspkg.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	s := &NATSSource{
		nc:     nc,
		events: make(chan store.Event, buffer),
		log:    log,
	}

	subjects := []string{
		prefix + ".notifications.created",
		prefix + ".chats.updated",
		prefix + ".chats.appended",
	}
	for _, subject := range subjects {
		sub, err := nc.Subscribe(subject, s.handle)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.subs = append(s.subs, sub)
	}

	log.Info("subscribed to store changes", logx.String("url", url), logx.Strings("subjects", subjects))
	return s, nil
}

func (s *NATSSource) handle(msg *natspkg.Msg) {
	ev, err := Decode(msg.Data)
	if err != nil {
		s.log.Warn("dropping undecodable change", logx.String("subject", msg.Subject), logx.Err(err))
		return
	}
	select {
	case s.events <- ev:
	default:
		// The runner is saturated; dropping keeps the subscriber callback
		// from blocking the NATS client.
		s.log.Warn("dropping change, runner queue full",
			logx.String("type", string(ev.Type)),
			logx.String("id", ev.ID),
		)
	}
}

func (s *NATSSource) Events() <-chan store.Event { return s.events }

func (s *NATSSource) Close() {
	s.closeOnce.Do(func() {
		for _, sub := range s.subs {
			_ = sub.Unsubscribe()
		}
		if s.nc != nil {
			s.nc.Close()
		}
		close(s.events)
	})
}
