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

package config

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/pelletier/go-toml/v2"
)

const (
	errReadServerConfig  = "cannot read server config"
	errParseServerConfig = "cannot parse server config as TOML"
)

// GroupDefaults is one processor group's default library search path, as
// configured ahead of time on disk rather than pulled from the editor.
type GroupDefaults struct {
	Libs []string `toml:"libs,omitempty"`
}

// ServerConfig is the optional on-disk hlasmls.toml: processor-group
// defaults and extra search-path roots, read at startup and read again by
// WatchConfig whenever the file is created or written.
type ServerConfig struct {
	ProcessorGroups map[string]GroupDefaults `toml:"processor_groups,omitempty"`
	SearchPaths     []string                 `toml:"search_paths,omitempty"`
}

// LoadServerConfig reads and parses path. A missing file is not an error:
// it returns a zero-value ServerConfig and found=false so the caller can
// fall back to relying solely on the editor's configuration pull.
func LoadServerConfig(path string) (cfg ServerConfig, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ServerConfig{}, false, nil
		}
		return ServerConfig{}, false, errors.Wrap(err, errReadServerConfig)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, false, errors.Wrap(err, errParseServerConfig)
	}
	return cfg, true, nil
}

// InitialSettings renders the on-disk defaults as a proc_grps JSON object,
// the same shape a workspace otherwise learns from the editor's
// workspace/configuration answer.
func (c ServerConfig) InitialSettings() (json.RawMessage, error) {
	names := make([]string, 0, len(c.ProcessorGroups))
	for name := range c.ProcessorGroups {
		names = append(names, name)
	}
	sort.Strings(names)

	pg := ProcGroups{}
	for _, name := range names {
		defaults := c.ProcessorGroups[name]
		libs := make([]Library, len(defaults.Libs))
		for i, p := range defaults.Libs {
			libs[i] = Library{Path: p}
		}
		pg.Pgroups = append(pg.Pgroups, Group{Name: name, Libs: libs})
	}
	return json.Marshal(pg)
}
