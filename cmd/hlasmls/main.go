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

// Command hlasmls starts the HLASM language server on stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/spf13/afero"

	"github.com/eclipse-che4z/hlasm-language-server/internal/analysis"
	"github.com/eclipse-che4z/hlasm-language-server/internal/config"
	"github.com/eclipse-che4z/hlasm-language-server/internal/lspserver"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/transport"
)

type cli struct {
	Serve   serveCmd   `cmd:"" help:"Start the language server on stdio."`
	Version versionCmd `cmd:"" help:"Print version and exit."`
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Println("hlasmls (dev)")
	return nil
}

type serveCmd struct {
	Config string `name:"config" help:"Path to an hlasmls.toml server configuration file." default:"hlasmls.toml"`
}

func (c *serveCmd) Run() error {
	log := logging.NewNopLogger()

	cfg, found, err := config.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}
	if found {
		log.Debug("loaded server configuration", "path", c.Config)
	}

	loader := resource.NewOSLoader(afero.NewOsFs())
	files := resource.NewManager(loader)
	analyzer := analysis.New()

	h := lspserver.New(files, loader, analyzer, lspserver.WithLogger(log))
	defer h.Close()
	if found {
		h.ApplyServerConfig(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		defer cancel()
		<-sigCh
	}()

	go func() {
		if err := config.WatchConfig(ctx, c.Config, h.ApplyServerConfig); err != nil {
			log.Debug("server config watch stopped", "error", err)
		}
	}()

	stream := transport.NewStream(transport.StdRWC{})
	return transport.Serve(ctx, stream, h)
}

func main() {
	c := cli{}
	parser := kong.Must(&c,
		kong.Name("hlasmls"),
		kong.Description("HLASM language server"),
	)
	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	kongCtx.FatalIfErrorf(kongCtx.Run())
}
