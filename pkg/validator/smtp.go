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

package validator

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/impt-platform/installer/pkg/defaults"
)

// SMTPParams describes the mail server the platform will send notifications through.
type SMTPParams struct {
	Host     string
	Port     int
	Username string
	Password string

	// TLSConfig overrides the STARTTLS client configuration. Nil uses the
	// system roots with ServerName set to Host.
	TLSConfig *tls.Config
	// Timeout bounds the whole conversation. Zero uses defaults.SMTPTimeout.
	Timeout time.Duration
}

// SMTP opens a TCP connection to the server, upgrades it with STARTTLS and
// authenticates with the given credentials. Any failure is reported as a
// *ValidationError.
func SMTP(ctx context.Context, p SMTPParams) error {
	addr := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	if err := HostPort(addr); err != nil {
		return err
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = defaults.SMTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: defaults.SocketProbeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return invalid("cannot connect to SMTP server %s: %v", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, p.Host)
	if err != nil {
		_ = conn.Close()
		return invalid("SMTP server %s did not greet: %v", addr, err)
	}
	defer client.Close()

	tlsConfig := p.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: p.Host, MinVersion: tls.VersionTLS12}
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return invalid("SMTP server %s rejected STARTTLS: %v", addr, err)
	}
	if err := client.Auth(smtp.PlainAuth("", p.Username, p.Password, p.Host)); err != nil {
		return invalid("SMTP login to %s failed: %v", addr, err)
	}
	_ = client.Quit()
	return nil
}
