// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ExtraData is key/value metadata a producer attaches to a buffer when it
// cancels or flushes it. Values are int32, int64, float64 or string; use the
// typed setters to keep it that way.
//
// The zero value is a nil map: getters work on it, setters panic.
// Use NewExtraData to get a writable map.
type ExtraData map[string]any

// NewExtraData returns an empty writable ExtraData.
func NewExtraData() ExtraData { return make(ExtraData) }

// SetInt32 stores v under key.
func (e ExtraData) SetInt32(key string, v int32) { e[key] = v }

// SetInt64 stores v under key.
func (e ExtraData) SetInt64(key string, v int64) { e[key] = v }

// SetFloat64 stores v under key.
func (e ExtraData) SetFloat64(key string, v float64) { e[key] = v }

// SetString stores v under key.
func (e ExtraData) SetString(key, v string) { e[key] = v }

// GetInt32 returns the int32 stored under key.
func (e ExtraData) GetInt32(key string) (int32, bool) {
	v, ok := e[key].(int32)
	return v, ok
}

// GetInt64 returns the int64 stored under key.
func (e ExtraData) GetInt64(key string) (int64, bool) {
	v, ok := e[key].(int64)
	return v, ok
}

// GetFloat64 returns the float64 stored under key.
func (e ExtraData) GetFloat64(key string) (float64, bool) {
	v, ok := e[key].(float64)
	return v, ok
}

// GetString returns the string stored under key.
func (e ExtraData) GetString(key string) (string, bool) {
	v, ok := e[key].(string)
	return v, ok
}

// Clone returns a shallow copy. Cloning nil returns nil.
func (e ExtraData) Clone() ExtraData {
	if e == nil {
		return nil
	}
	return maps.Clone(e)
}

// String returns the entries sorted by key, e.g. "{alpha=1 name=ui}".
func (e ExtraData) String() string {
	keys := slices.Sorted(maps.Keys(e))
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", k, e[k])
	}
	sb.WriteByte('}')
	return sb.String()
}
