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

// Package identity changes platform user passwords in the LDAP directory
// backing the platform's identity provider.
package identity

import (
	"fmt"
	"log/slog"

	"github.com/go-ldap/ldap/v3"

	"github.com/impt-platform/installer/pkg/errors"
)

// Default directory coordinates of the platform identity service.
const (
	DefaultURL    = "ldap://127.0.0.1:30389"
	DefaultBaseDN = "dc=impt,dc=local"
	DefaultBindDN = "cn=admin,dc=impt,dc=local"
)

// Directory is the subset of *ldap.Conn used to change passwords.
type Directory interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error)
}

// Config locates and authenticates against the directory.
type Config struct {
	URL          string
	BaseDN       string
	BindDN       string
	BindPassword string
}

// Dial connects to the directory and binds with the admin credentials.
// Callers must Close the returned connection.
func Dial(cfg Config) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to connect to %s", cfg.URL), err)
	}
	if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, fmt.Sprintf("failed to bind as %s", cfg.BindDN), err)
	}
	return conn, nil
}

// FindUserDN returns the DN of the single entry whose mail is username.
func FindUserDN(dir Directory, baseDN, username string) (string, error) {
	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
		fmt.Sprintf("(mail=%s)", ldap.EscapeFilter(username)),
		[]string{"dn"},
		nil,
	)
	res, err := dir.Search(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "user search failed", err)
	}
	switch len(res.Entries) {
	case 0:
		return "", errors.NewWithContext(errors.ErrCodeNotFound,
			fmt.Sprintf("user %s not found", username), map[string]any{"base_dn": baseDN})
	case 1:
		return res.Entries[0].DN, nil
	}
	return "", errors.NewWithContext(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("more than one user matches %s", username), map[string]any{"base_dn": baseDN})
}

// ChangePassword sets a new password for the user identified by mail.
// The password must already satisfy the platform policy.
func ChangePassword(dir Directory, baseDN, username, password string) error {
	dn, err := FindUserDN(dir, baseDN, username)
	if err != nil {
		return err
	}
	if _, err := dir.PasswordModify(ldap.NewPasswordModifyRequest(dn, "", password)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to change password of %s", username), err)
	}
	slog.Info("password changed", "user", username, "dn", dn)
	return nil
}
