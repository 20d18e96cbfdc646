// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nats

// Config holds the connection and flow-control parameters for the
// station-data bus. Field names mirror the AMQP vocabulary the stations
// publish against (exchange, vhost, binding keys, prefetch) even though
// the transport underneath is NATS JetStream: a stream bound to subject
// "<Exchange>.>" stands in for the topic exchange, a durable consumer
// per binding key stands in for a queue binding, and MaxAckPending
// realizes the prefetch cap.
type Config struct {
	Address       string   `json:"address"`
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	CredsFilePath string   `json:"creds-file-path"`
	Vhost         string   `json:"vhost"`
	Exchange      string   `json:"exchange"`
	Durable       string   `json:"durable"`
	BindingKeys   []string `json:"binding-keys"`
	Prefetch      int      `json:"prefetch"`
}

// DefaultConfig mirrors the defaults in detector/settings.py: exchange
// "stations", binding key "#" (all routing keys), prefetch 50.
func DefaultConfig() Config {
	return Config{
		Exchange:    "stations",
		Durable:     "detector",
		BindingKeys: []string{"#"},
		Prefetch:    50,
	}
}

// ConfigSchema is a JSON schema describing the bus configuration, in
// the same inline-schema-string idiom as internal/config/validate.go in
// the teacher. Nothing in this module validates against it; Connect
// checks only that Address is set.
const ConfigSchema = `{
	"type": "object",
	"description": "Configuration for the station-data message bus.",
	"properties": {
		"address": {"type": "string"},
		"username": {"type": "string"},
		"password": {"type": "string"},
		"creds-file-path": {"type": "string"},
		"vhost": {"type": "string"},
		"exchange": {"type": "string"},
		"durable": {"type": "string"},
		"binding-keys": {"type": "array", "items": {"type": "string"}},
		"prefetch": {"type": "integer", "minimum": 1}
	},
	"required": ["address"]
}`
