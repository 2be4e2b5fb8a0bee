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

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

type fakeBuckets struct {
	createErrs []error
	rules      map[string]types.LifecycleRule
	created    []string
}

func (f *fakeBuckets) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.created = append(f.created, aws.ToString(in.Bucket))
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeBuckets) PutBucketLifecycleConfiguration(_ context.Context, in *s3.PutBucketLifecycleConfigurationInput, _ ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error) {
	if f.rules == nil {
		f.rules = map[string]types.LifecycleRule{}
	}
	f.rules[aws.ToString(in.Bucket)] = in.LifecycleConfiguration.Rules[0]
	return &s3.PutBucketLifecycleConfigurationOutput{}, nil
}

func fastBackoff(t *testing.T) {
	orig := gatewayBackoff
	gatewayBackoff = wait.Backoff{Steps: 3}
	t.Cleanup(func() { gatewayBackoff = orig })
}

func TestApplyTTLs(t *testing.T) {
	fastBackoff(t)
	api := &fakeBuckets{createErrs: []error{
		errors.New("connection refused"),
		&types.BucketAlreadyOwnedByYou{},
	}}

	require.NoError(t, ApplyTTLs(context.Background(), api, DefaultBucketTTLs))

	assert.Equal(t, []string{"datasets-tmp", "logs"}, api.created, "models already existed")
	require.Len(t, api.rules, 3)
	rule := api.rules["datasets-tmp"]
	assert.Equal(t, types.ExpirationStatusEnabled, rule.Status)
	assert.Equal(t, int32(1), aws.ToInt32(rule.Expiration.Days))
	assert.Equal(t, "", aws.ToString(rule.Filter.Prefix))
	assert.Equal(t, "ttl-datasets-tmp", aws.ToString(rule.ID))
}

func TestApplyTTLsGivesUp(t *testing.T) {
	fastBackoff(t)
	boom := errors.New("gateway down")
	api := &fakeBuckets{createErrs: []error{boom, boom, boom, boom}}

	err := ApplyTTLs(context.Background(), api, DefaultBucketTTLs[:1])
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, api.rules)
}

func TestCredentialsFromSecret(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: CredentialsSecret, Namespace: "impt"},
		Data: map[string][]byte{
			AccessKeyField: []byte("ak"),
			SecretKeyField: []byte("sk"),
		},
	}
	creds, err := CredentialsFromSecret(secret)
	require.NoError(t, err)
	assert.Equal(t, Credentials{AccessKey: "ak", SecretKey: "sk"}, creds)

	delete(secret.Data, SecretKeyField)
	_, err = CredentialsFromSecret(secret)
	assert.Error(t, err)
}

func TestEndpointAndClient(t *testing.T) {
	assert.Equal(t, "http://10.0.0.5:30333", Endpoint("10.0.0.5"))
	c, err := NewClient(context.Background(), Endpoint("10.0.0.5"), Credentials{AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestGatewayBackoffSchedule(t *testing.T) {
	b := gatewayBackoff
	b.Jitter = 0
	assert.Equal(t, 5, b.Steps, "attempts")
	// no wait follows the last attempt
	var waits []time.Duration
	for b.Steps > 1 {
		waits = append(waits, b.Step())
	}
	assert.Equal(t, []time.Duration{
		2 * time.Second, 3 * time.Second, 4500 * time.Millisecond, 6750 * time.Millisecond,
	}, waits)
}
