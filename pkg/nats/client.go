// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nats provides the station-data bus client used by the
// detector. It wraps the nats.go library's JetStream API with
// connection management, durable consumer bookkeeping and
// prefetch-bounded delivery, matching §5/§6 of the pipeline
// specification: one message delivered at a time, acked only after
// the handler completes, and dropped (not requeued) on decode failure.
package nats

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/seisgo/pipeline/pkg/log"
)

// Outcome tells the client what to do with a delivered message once the
// handler returns.
type Outcome int

const (
	// Ack acknowledges the message; it will not be redelivered.
	Ack Outcome = iota
	// Drop terminates the message without requeuing it — the "poison
	// message" case from §7 (decode failure).
	Drop
)

// Handler processes one message body, identified by its routing key
// (the NATS subject with the exchange prefix stripped), and reports
// what should happen to the delivery.
type Handler func(routingKey string, body []byte) Outcome

// Client wraps a NATS connection and JetStream context with
// subscription bookkeeping.
type Client struct {
	cfg  Config
	conn *nats.Conn
	js   nats.JetStreamContext

	mu   sync.Mutex
	subs []*nats.Subscription
}

// Connect dials the bus, declares the durable stream backing Exchange,
// and returns a ready-to-subscribe Client. The heartbeat (ping
// interval) and connection timeout are fixed at 30s / 120s (§5).
func Connect(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("nats: address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts,
		nats.PingInterval(30*time.Second),
		nats.Timeout(120*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("bus: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("bus: reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Errorf("bus: async error: %v", err)
		}),
	)

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus: connect failed: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("bus: jetstream context failed: %w", err)
	}

	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "stations"
	}
	streamName := strings.ToUpper(exchange)
	if _, err := js.StreamInfo(streamName); err != nil {
		_, err := js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{exchange + ".>"},
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("bus: declare stream %q failed: %w", streamName, err)
		}
	}

	log.Infof("bus: connected to %s (exchange=%s)", cfg.Address, exchange)
	return &Client{cfg: cfg, conn: nc, js: js}, nil
}

// amqpToNatsPattern rewrites an AMQP topic binding key ("#" = any number
// of segments, "*" = exactly one segment) into the equivalent NATS
// subject wildcard ("#" -> ">", "*" stays "*").
func amqpToNatsPattern(exchange, key string) string {
	if key == "" {
		key = "#"
	}
	segs := strings.Split(key, ".")
	for i, s := range segs {
		if s == "#" {
			segs[i] = ">"
		}
	}
	return exchange + "." + strings.Join(segs, ".")
}

// Subscribe binds a durable push consumer per configured binding key
// and delivers messages to handler, one at a time, acking or dropping
// per the returned Outcome. Each binding key gets its own durable
// consumer, and Prefetch (MaxAckPending) bounds in-flight (unacked)
// deliveries per consumer, so with several binding keys the total can
// reach Prefetch times the number of keys.
func (c *Client) Subscribe(handler Handler) error {
	exchange := c.cfg.Exchange
	if exchange == "" {
		exchange = "stations"
	}
	durable := c.cfg.Durable
	if durable == "" {
		durable = "detector"
	}
	keys := c.cfg.BindingKeys
	if len(keys) == 0 {
		keys = []string{"#"}
	}
	prefetch := c.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 50
	}

	for i, key := range keys {
		subject := amqpToNatsPattern(exchange, key)
		durableName := durable
		if len(keys) > 1 {
			durableName = fmt.Sprintf("%s_%d", durable, i)
		}

		sub, err := c.js.Subscribe(subject, func(msg *nats.Msg) {
			routingKey := strings.TrimPrefix(msg.Subject, exchange+".")
			switch handler(routingKey, msg.Data) {
			case Drop:
				_ = msg.Term()
			default:
				_ = msg.Ack()
			}
		},
			nats.Durable(durableName),
			nats.ManualAck(),
			nats.AckExplicit(),
			nats.MaxAckPending(prefetch),
		)
		if err != nil {
			return fmt.Errorf("bus: subscribe to %q failed: %w", subject, err)
		}

		c.mu.Lock()
		c.subs = append(c.subs, sub)
		c.mu.Unlock()
		log.Infof("bus: subscribed durable=%s subject=%s prefetch=%d", durableName, subject, prefetch)
	}

	return nil
}

// Publish sends a raw miniSEED record body under the given routing key.
// Used by synthetic-waveform publishers; the detector never calls this.
func (c *Client) Publish(routingKey string, body []byte) error {
	exchange := c.cfg.Exchange
	if exchange == "" {
		exchange = "stations"
	}
	subject := exchange + "." + routingKey
	if _, err := c.js.Publish(subject, body); err != nil {
		return fmt.Errorf("bus: publish to %q failed: %w", subject, err)
	}
	return nil
}

// Drain waits (up to ctx's deadline) for in-flight handlers to finish,
// then closes all subscriptions and the connection. Used on shutdown so
// no in-flight message is left un-acked per §5.
func (c *Client) Drain(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Drain(); err != nil {
		return fmt.Errorf("bus: drain failed: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for !c.conn.IsClosed() {
			time.Sleep(10 * time.Millisecond)
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.conn.Close()
		return ctx.Err()
	}
}

// IsConnected reports whether the underlying connection is up.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
