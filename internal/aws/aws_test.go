// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"testing"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the developer's AWS files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", dir+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", dir+"/credentials")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestOptions(t *testing.T) {
	var o options
	for _, opt := range []Option{WithProfile("ci"), WithRegion("eu-west-1"), WithRegion("us-east-2"), WithMaxAttempts(5)} {
		opt(&o)
	}
	assert.Equal(t, options{profile: "ci", region: "us-east-2", maxAttempts: 5}, o, "later options win")
}

func TestLoadAWSConfig(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		opts   []Option
		region string
	}{
		{"defaults", nil, ""},
		{"region", []Option{WithRegion("us-west-2")}, "us-west-2"},
		{"attempts", []Option{WithRegion("eu-central-1"), WithMaxAttempts(2)}, "eu-central-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAWSConfig(context.Background(), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.region, cfg.Region)
		})
	}
}

func TestLoadAWSConfig_RetryAttempts(t *testing.T) {
	isolate(t)

	cfg, err := LoadAWSConfig(context.Background(), WithMaxAttempts(7))
	require.NoError(t, err)
	require.NotNil(t, cfg.Retryer)
	assert.Equal(t, 7, cfg.Retryer().MaxAttempts())
}

func TestLoadAWSConfig_MissingProfile(t *testing.T) {
	isolate(t)

	_, err := LoadAWSConfig(context.Background(), WithProfile("deepcmp-no-such-profile"))
	assert.Error(t, err)
}

func TestWithS3Endpoint(t *testing.T) {
	t.Parallel()

	var o s3v2.Options
	WithS3Endpoint("http://localhost:9000", true)(&o)
	require.NotNil(t, o.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *o.BaseEndpoint)
	assert.True(t, o.UsePathStyle)

	var plain s3v2.Options
	WithS3Endpoint("", false)(&plain)
	assert.Nil(t, plain.BaseEndpoint)
}

func TestNewS3(t *testing.T) {
	isolate(t)

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("ap-northeast-1"))
	require.NoError(t, err)
	c := NewS3(cfg, WithS3Endpoint("http://localhost:4566", true))
	assert.NotNil(t, c)
	assert.Equal(t, "ap-northeast-1", c.Options().Region)
	assert.True(t, c.Options().UsePathStyle)
}
