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

package checks

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// K3sUnit is the systemd unit running the k3s server.
const K3sUnit = "k3s.service"

// UnitStater reports the ActiveState of a systemd unit.
type UnitStater interface {
	ActiveState(ctx context.Context, unit string) (string, error)
}

// SystemdUnits reads unit state from systemd over D-Bus.
type SystemdUnits struct{}

// ActiveState implements UnitStater.
func (SystemdUnits) ActiveState(ctx context.Context, unit string) (string, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	prop, err := conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", fmt.Errorf("failed to get ActiveState of %s: %w", unit, err)
	}
	state, ok := prop.Value.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected ActiveState type %T for %s", prop.Value.Value(), unit)
	}
	return state, nil
}
