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

package identity

import (
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"

	cerrors "github.com/impt-platform/installer/pkg/errors"
)

type fakeDirectory struct {
	entries   map[string]string // mail -> dn
	searchErr error
	filters   []string
	modified  map[string]string
}

func (f *fakeDirectory) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.filters = append(f.filters, req.Filter)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	res := &ldap.SearchResult{}
	for mail, dn := range f.entries {
		if req.Filter == "(mail="+ldap.EscapeFilter(mail)+")" {
			res.Entries = append(res.Entries, ldap.NewEntry(dn, nil))
		}
	}
	return res, nil
}

func (f *fakeDirectory) PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error) {
	if f.modified == nil {
		f.modified = map[string]string{}
	}
	f.modified[req.UserIdentity] = req.NewPassword
	return &ldap.PasswordModifyResult{}, nil
}

func TestChangePassword(t *testing.T) {
	dir := &fakeDirectory{entries: map[string]string{
		"a@b.c": "uid=a,ou=users,dc=impt,dc=local",
	}}

	if err := ChangePassword(dir, DefaultBaseDN, "a@b.c", "Qwerty12345%"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if got := dir.modified["uid=a,ou=users,dc=impt,dc=local"]; got != "Qwerty12345%" {
		t.Errorf("password of matched DN = %q", got)
	}
	if dir.filters[0] != "(mail=a@b.c)" {
		t.Errorf("filter = %q", dir.filters[0])
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	dir := &fakeDirectory{}
	err := ChangePassword(dir, DefaultBaseDN, "x@y.z", "Qwerty12345%")
	if !cerrors.IsCode(err, cerrors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
	if len(dir.modified) != 0 {
		t.Error("no password may change for an unknown user")
	}
}

func TestFindUserDNEscapesFilter(t *testing.T) {
	dir := &fakeDirectory{}
	_, _ = FindUserDN(dir, DefaultBaseDN, "a*)(uid=*")
	if dir.filters[0] != `(mail=a\2a\29\28uid=\2a)` {
		t.Errorf("filter = %q", dir.filters[0])
	}

	dir.searchErr = errors.New("server down")
	if _, err := FindUserDN(dir, DefaultBaseDN, "a@b.c"); !cerrors.IsCode(err, cerrors.ErrCodeInternal) {
		t.Errorf("error = %v, want INTERNAL", err)
	}
}
