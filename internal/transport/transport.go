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

// Package transport wires an LSP jsonrpc2.Handler to a byte stream: stdio
// for the normal editor-spawned case, or any io.ReadWriteCloser for tests.
package transport

import (
	"context"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
)

// StdRWC is a readwritecloser on stdio, the transport an editor talks to
// when it spawns the server as a child process.
type StdRWC struct{}

// Read reads from stdin.
func (StdRWC) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

// Write writes to stdout.
func (StdRWC) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

// Close first closes stdin, then, if successful, closes stdout.
func (StdRWC) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

// Serve runs an LSP connection over rwc until the peer disconnects or ctx
// is cancelled, dispatching every request/notification to h.
func Serve(ctx context.Context, rwc jsonrpc2.ObjectStream, h jsonrpc2.Handler) error {
	conn := jsonrpc2.NewConn(ctx, rwc, h)
	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

// NewStream wraps rwc in the VSCode-style framed object codec every LSP
// implementation over stdio uses (Content-Length headers).
func NewStream(rwc io.ReadWriteCloser) jsonrpc2.ObjectStream {
	return jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
}
