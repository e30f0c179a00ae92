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

// Package config parses the two configuration surfaces the server reads:
// the per-workspace proc_grps JSON object (processor-group library lists,
// pulled via workspace/configuration) and an optional on-disk hlasmls.toml
// that seeds a workspace's settings before that pull completes.
package config

import "encoding/json"

// Library names one directory or dataset a processor group searches for
// members. The wire form accepts either a bare path string (defaulting
// Optional to false) or an object with an explicit optional flag; it
// always reserializes to the object form.
type Library struct {
	Path     string `json:"path"`
	Optional bool   `json:"optional"`
}

// UnmarshalJSON accepts both `"lib1"` and `{"path":"lib2","optional":true}`.
func (l *Library) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err == nil {
		l.Path = path
		l.Optional = false
		return nil
	}
	type alias Library
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = Library(a)
	return nil
}

// MarshalJSON always renders the object form, per the canonical
// reserialization shape.
func (l Library) MarshalJSON() ([]byte, error) {
	type alias Library
	return json.Marshal(alias(l))
}

// Group is one named processor group and its ordered library search path.
type Group struct {
	Name string    `json:"name"`
	Libs []Library `json:"libs"`
}

// ProcGroups is the proc_grps configuration object a workspace's
// workspace/configuration response carries.
type ProcGroups struct {
	Pgroups []Group `json:"pgroups"`
}

// ParseProcGroups parses a proc_grps JSON object.
func ParseProcGroups(raw json.RawMessage) (ProcGroups, error) {
	var pg ProcGroups
	if len(raw) == 0 {
		return pg, nil
	}
	if err := json.Unmarshal(raw, &pg); err != nil {
		return ProcGroups{}, err
	}
	return pg, nil
}

// Group returns the named processor group, if configured.
func (pg ProcGroups) Group(name string) (Group, bool) {
	for _, g := range pg.Pgroups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}
