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

// Package helm drives the Helm binary for platform charts.
//
// A Driver renders a chart's values file from a text/template (with the
// sprig function library), pulls the chart in lightweight mode, and upserts
// the release with "helm upgrade --install". Before each upsert the driver
// can wait for a dependency service to expose a ready endpoint. Transient
// Helm failures (API rate limiting, "timed out waiting for the condition")
// are retried with a fixed backoff; anything else is returned as a
// CHART_INSTALLATION error.
//
//	d := helm.NewDriver(runner, cluster, templates)
//	if err := d.RenderValues(spec, data); err != nil {
//	    return err
//	}
//	return d.Upsert(ctx, spec)
package helm
