/*
Copyright (c) 2023-2026 Microbus LLC and various contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package parentclient implements the child router's proxy to a parent router (spec §4.4):
// resolveNextHop, the fire-and-forget add/remove notifications for next hops, and the
// acknowledged add/remove requests for multicast receivers, carried over a NATS connection.
package parentclient

import (
	"context"
	"os"

	"github.com/microbus-io/errors"
	"github.com/nats-io/nats.go"
	"github.com/relaymesh/msgrouter/env"
)

// Logger receives connection lifecycle events, in the caller's context.
type Logger interface {
	LogInfo(ctx context.Context, msg string, args ...any)
	LogError(ctx context.Context, msg string, args ...any)
}

// Connect dials the NATS cluster used to reach the parent router, reading connection
// settings from the environment the same way the rest of the module's components do.
// A bare nats.Conn is returned so callers construct a Client around it explicitly,
// keeping connection lifecycle separate from the RPC surface in client.go.
func Connect(ctx context.Context, logger Logger) (*nats.Conn, error) {
	url := env.Get("ROUTER_PARENT_NATS")
	if url == "" {
		url = "nats://127.0.0.1:4222"
	}

	var opts []nats.Option
	user := env.Get("ROUTER_PARENT_NATS_USER")
	pw := env.Get("ROUTER_PARENT_NATS_PASSWORD")
	token := env.Get("ROUTER_PARENT_NATS_TOKEN")
	if user != "" && pw != "" {
		opts = append(opts, nats.UserInfo(user, pw))
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	if exists("ca.pem") {
		opts = append(opts, nats.RootCAs("ca.pem"))
	}
	if exists("cert.pem") && exists("key.pem") {
		opts = append(opts, nats.ClientCert("cert.pem", "key.pem"))
	}
	opts = append(opts, nats.MaxReconnects(-1))
	if logger != nil {
		opts = append(opts,
			nats.ErrorHandler(func(c *nats.Conn, s *nats.Subscription, err error) {
				sub := ""
				if s != nil {
					sub = s.Subject
				}
				logger.LogError(ctx, err.Error(), "subject", sub)
			}),
			nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
				logger.LogInfo(ctx, "disconnected from parent router")
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				logger.LogInfo(ctx, "reconnected to parent router", "url", c.ConnectedUrl())
			}),
		)
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if logger != nil {
		logger.LogInfo(ctx, "connected to parent router", "url", conn.ConnectedUrl())
	}
	return conn, nil
}

func exists(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
