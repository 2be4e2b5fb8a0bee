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

// Package metrics records installer check and step outcomes and writes them
// as a node-exporter textfile after each run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one installer run.
type Recorder struct {
	reg       *prometheus.Registry
	operation string

	stepDuration *prometheus.HistogramVec
	stepTotal    *prometheus.CounterVec
	checkTotal   *prometheus.CounterVec
	runInfo      *prometheus.GaugeVec
	runSuccess   prometheus.Gauge
}

// NewRecorder returns a Recorder for one run of operation.
func NewRecorder(operation, runID, version string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		reg:       reg,
		operation: operation,
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "platform_installer_step_duration_seconds",
				Help:    "Time taken by individual installer steps",
				Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
			},
			[]string{"operation", "step"},
		),
		stepTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_installer_steps_total",
				Help: "Installer steps by final state",
			},
			[]string{"operation", "step", "state"},
		),
		checkTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_installer_checks_total",
				Help: "Pre-flight checks by outcome",
			},
			[]string{"operation", "check", "outcome"},
		),
		runInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "platform_installer_run_info",
				Help: "Identity of the last installer run",
			},
			[]string{"operation", "run_id", "version"},
		),
		runSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "platform_installer_last_run_success",
				Help:        "1 when the last run of the operation succeeded",
				ConstLabels: prometheus.Labels{"operation": operation},
			},
		),
	}
	r.runInfo.WithLabelValues(operation, runID, version).Set(1)
	return r
}

// CheckCompleted records a check outcome.
func (r *Recorder) CheckCompleted(name, status string) {
	r.checkTotal.WithLabelValues(r.operation, name, status).Inc()
}

// StepCompleted records a step's final state and duration.
func (r *Recorder) StepCompleted(name, state string, d time.Duration) {
	r.stepTotal.WithLabelValues(r.operation, name, state).Inc()
	r.stepDuration.WithLabelValues(r.operation, name).Observe(d.Seconds())
}

// RunFinished records whether the run succeeded.
func (r *Recorder) RunFinished(success bool) {
	if success {
		r.runSuccess.Set(1)
		return
	}
	r.runSuccess.Set(0)
}

// Gatherer exposes the run's registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile writes the metrics in text exposition format to path,
// creating parent directories.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
