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

package orchestrator

// ID is a JSON-RPC request identifier: either a 64-bit integer or a
// string. It is comparable (usable as a Go map key) and ordered, with
// integers sorting before strings and natural order within each kind.
type ID struct {
	str   string
	num   int64
	isStr bool
}

// IntID builds an integer-valued ID.
func IntID(v int64) ID { return ID{num: v} }

// StringID builds a string-valued ID.
func StringID(v string) ID { return ID{str: v, isStr: true} }

// IsString reports whether the ID was constructed from a string.
func (id ID) IsString() bool { return id.isStr }

// Int returns the integer value, valid only when !IsString().
func (id ID) Int() int64 { return id.num }

// String returns the string value when IsString(), otherwise the decimal
// rendering of the integer value (for logging).
func (id ID) String() string {
	if id.isStr {
		return id.str
	}
	return itoa(id.num)
}

// Less orders integers before strings, and naturally within each kind.
func (id ID) Less(other ID) bool {
	if id.isStr != other.isStr {
		return !id.isStr
	}
	if !id.isStr {
		return id.num < other.num
	}
	return id.str < other.str
}

// Equal reports structural equality; ID is also usable directly with ==.
func (id ID) Equal(other ID) bool { return id == other }

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
