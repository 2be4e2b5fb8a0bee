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
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
)

// Secret holding the SeaweedFS S3 admin credentials.
const (
	CredentialsSecret = "seaweedfs-s3-secret"
	AccessKeyField    = "admin_access_key_id"
	SecretKeyField    = "admin_secret_access_key"
	S3NodePort        = 30333
	defaultRegion     = "us-east-1"
)

// BucketTTL is the expiration applied to objects of one bucket.
type BucketTTL struct {
	Bucket string
	Days   int32
}

// DefaultBucketTTLs lists the buckets whose objects expire.
var DefaultBucketTTLs = []BucketTTL{
	{Bucket: "models", Days: 14},
	{Bucket: "datasets-tmp", Days: 1},
	{Bucket: "logs", Days: 30},
}

// BucketAPI is the subset of the S3 client used here.
type BucketAPI interface {
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutBucketLifecycleConfiguration(ctx context.Context, in *s3.PutBucketLifecycleConfigurationInput, opts ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error)
}

// Credentials are S3 access keys.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// CredentialsFromSecret extracts S3 keys from the SeaweedFS secret.
func CredentialsFromSecret(secret *corev1.Secret) (Credentials, error) {
	ak, sk := string(secret.Data[AccessKeyField]), string(secret.Data[SecretKeyField])
	if ak == "" || sk == "" {
		return Credentials{}, fmt.Errorf("secret %s/%s does not contain %s and %s",
			secret.Namespace, secret.Name, AccessKeyField, SecretKeyField)
	}
	return Credentials{AccessKey: ak, SecretKey: sk}, nil
}

// Endpoint returns the S3 gateway URL exposed on a node.
func Endpoint(nodeIP string) string {
	return fmt.Sprintf("http://%s:%d", nodeIP, S3NodePort)
}

// NewClient returns an S3 client for the SeaweedFS gateway at endpoint.
func NewClient(ctx context.Context, endpoint string, creds Credentials) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(defaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

// ApplyTTLs ensures every bucket exists and carries its expiration rule.
// Each bucket is retried with gatewayBackoff while the gateway comes up.
func ApplyTTLs(ctx context.Context, api BucketAPI, ttls []BucketTTL) error {
	for _, ttl := range ttls {
		err := retry.OnError(gatewayBackoff, func(error) bool { return ctx.Err() == nil }, func() error {
			return applyTTL(ctx, api, ttl)
		})
		if err != nil {
			return fmt.Errorf("failed to set TTL on bucket %s: %w", ttl.Bucket, err)
		}
		slog.Info("bucket TTL applied", "bucket", ttl.Bucket, "days", ttl.Days)
	}
	return nil
}

// gatewayBackoff allows five attempts with waits of 2s, 3s, 4.5s and 6.75s
// between them, each with up to 10% jitter.
var gatewayBackoff = wait.Backoff{Steps: 5, Duration: 2 * time.Second, Factor: 1.5, Jitter: 0.1}

func applyTTL(ctx context.Context, api BucketAPI, ttl BucketTTL) error {
	_, err := api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(ttl.Bucket)})
	if err != nil && !bucketExists(err) {
		return err
	}

	_, err = api.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(ttl.Bucket),
		LifecycleConfiguration: &types.BucketLifecycleConfiguration{
			Rules: []types.LifecycleRule{{
				ID:         aws.String("ttl-" + ttl.Bucket),
				Status:     types.ExpirationStatusEnabled,
				Filter:     &types.LifecycleRuleFilter{Prefix: aws.String("")},
				Expiration: &types.LifecycleExpiration{Days: aws.Int32(ttl.Days)},
			}},
		},
	})
	return err
}

func bucketExists(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	return stderrors.As(err, &owned) || stderrors.As(err, &exists)
}
