// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/impt-platform/installer/pkg/errors"
)

const redacted = "<redacted>"

// LoadFile reads a YAML mapping of field names to scalars from path and
// stores every entry through the validating setters.
func (c *OperationConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to read configuration file %s", path), err)
	}
	return c.Load(bytes.NewReader(data))
}

// Load reads a YAML mapping of field names to scalars from r.
// Unknown keys and derived fields are rejected.
func (c *OperationConfig) Load(r io.Reader) error {
	raw := make(map[string]any)
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "failed to parse configuration", err)
	}

	for _, e := range c.entries {
		v, ok := raw[e.Name()]
		if !ok {
			continue
		}
		delete(raw, e.Name())
		if e.Derived() {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("configuration field %q is computed by the installer", e.Name()),
				map[string]any{"field": e.Name()})
		}
		if v == nil {
			continue
		}
		if err := e.SetAny(v); err != nil {
			return err
		}
	}

	if len(raw) > 0 {
		unknown := make([]string, 0, len(raw))
		for key := range raw {
			unknown = append(unknown, key)
		}
		sort.Strings(unknown)
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown configuration fields for %s: %v", c.kind, unknown),
			map[string]any{"fields": unknown})
	}
	return nil
}

// Dump writes the effective configuration as an ordered YAML mapping.
// Secret values are redacted.
func (c *OperationConfig) Dump(w io.Writer) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range c.entries {
		v, ok := e.Any()
		if !ok {
			continue
		}
		if e.Secret() {
			v = redacted
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: e.Name()}
		val := &yaml.Node{}
		if err := val.Encode(v); err != nil {
			return fmt.Errorf("failed to encode %s: %w", e.Name(), err)
		}
		doc.Content = append(doc.Content, key, val)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	return enc.Close()
}

// DumpFile atomically writes the effective configuration to path.
func (c *OperationConfig) DumpFile(path string) error {
	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// DumpedValue returns the scalar stored under name in a configuration dump
// written by DumpFile. A missing file or key yields "".
func DumpedValue(path, name string) (string, error) {
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to read configuration file %s", path), err)
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to parse configuration file %s", path), err)
	}
	v, ok := raw[name]
	if !ok || v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok && s == redacted {
		return "", nil
	}
	return fmt.Sprint(v), nil
}
