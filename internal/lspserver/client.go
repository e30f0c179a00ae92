// Copyright 2024 The HLASM Language Server Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lspserver

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/eclipse-che4z/hlasm-language-server/internal/respchan"
)

const errRequestConfig = "failed to pull workspace configuration"

// rpcClient implements orchestrator.Client over the live jsonrpc2
// connection, pulling workspace/configuration the way spec.md's
// "configuration pull" describes: before the connection exists, or when the
// client answers with no items, it resolves with an empty object; a failed
// call resolves the channel with the error, which the orchestrator's queue
// then treats as an empty object.
type rpcClient struct {
	log logging.Logger

	mu   sync.RWMutex
	conn *jsonrpc2.Conn
}

func (c *rpcClient) setConn(conn *jsonrpc2.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

func (c *rpcClient) getConn() *jsonrpc2.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// RequestWorkspaceConfiguration implements orchestrator.Client.
func (c *rpcClient) RequestWorkspaceConfiguration(ctx context.Context, uri string, result *respchan.Chan[json.RawMessage]) {
	conn := c.getConn()
	if conn == nil {
		_ = result.Provide(json.RawMessage(`{}`))
		return
	}
	go func() {
		var raw []json.RawMessage
		params := configurationParams{Items: []configurationItem{{ScopeURI: uri}}}
		if err := conn.Call(ctx, "workspace/configuration", params, &raw); err != nil {
			if c.log != nil {
				c.log.Debug(errRequestConfig, "error", err)
			}
			_ = result.Error(err)
			return
		}
		if len(raw) == 0 {
			_ = result.Provide(json.RawMessage(`{}`))
			return
		}
		_ = result.Provide(raw[0])
	}()
}
