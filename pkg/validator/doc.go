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

// Package validator checks user-supplied configuration values.
//
// Every validator returns nil or a *ValidationError whose message is shown
// at the prompt, which then asks again:
//
//	validator.Email("admin@example.com")
//	validator.Password("Qwerty12345%")  // 8-200 chars, upper, lower, digit or symbol
//	validator.Domain("")                // optional, empty is accepted
//	validator.DataFolder("/data", true) // absolute, existing, empty, private
//	validator.RegistryAddress("registry.local:5000")
//
// SMTP validation talks to the server: it connects, upgrades with STARTTLS
// and authenticates, bounded by defaults.SMTPTimeout.
package validator
