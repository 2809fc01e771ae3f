// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tfctl/deepcmp/internal/log"
)

// options holds optional overrides for AWS config loading.
type options struct {
	profile     string
	region      string
	maxAttempts int
}

// Option customizes how AWS config is loaded.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// LoadAWSConfig loads AWS SDK v2 config. Options override profile, region and
// retry attempts; everything else comes from the default chain.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log.Debugf("aws opts: profile=%s region=%s attempts=%d", o.profile, o.region, o.maxAttempts)

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.maxAttempts > 0 {
		attempts := o.maxAttempts
		loadOpts = append(loadOpts, config.WithRetryer(func() awsv2.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), attempts)
		}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Debugf("aws config load failed: %v", err)
		return awsv2.Config{}, err
	}
	return cfg, nil
}

// WithProfile sets the shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithMaxAttempts caps retries of each S3 call; zero keeps the SDK default.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// NewS3 constructs a v2 S3 client from the provided config.
func NewS3(cfg awsv2.Config, optFns ...func(*s3v2.Options)) *s3v2.Client {
	return s3v2.NewFromConfig(cfg, optFns...)
}

// WithS3Endpoint points the client at an S3-compatible endpoint such as MinIO
// or LocalStack. Those stores generally need path-style addressing.
func WithS3Endpoint(url string, pathStyle bool) func(*s3v2.Options) {
	return func(o *s3v2.Options) {
		if url != "" {
			o.BaseEndpoint = awsv2.String(url)
		}
		o.UsePathStyle = pathStyle
	}
}
