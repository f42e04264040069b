package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/oneconcern/datakit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitProtocol(t *testing.T) {
	abs, err := filepath.Abs("relative/test.xml")
	require.NoError(t, err)

	for _, tc := range []struct {
		logical  string
		protocol Protocol
		native   string
	}{
		{"/tmp/test.xml", ProtocolFile, "/tmp/test.xml"},
		{"file:///tmp/test.xml", ProtocolFile, "/tmp/test.xml"},
		{"relative/test.xml", ProtocolFile, filepath.ToSlash(abs)},
		{"s3://bucket/file.xml", ProtocolS3, "bucket/file.xml"},
		{"gcs://bucket/file.xml", ProtocolGCS, "bucket/file.xml"},
		{"gs://bucket/file.xml", ProtocolGCS, "bucket/file.xml"},
		{"http://example.com/file.xml", ProtocolHTTP, "http://example.com/file.xml"},
		{"https://example.com/file.xml", ProtocolHTTPS, "https://example.com/file.xml"},
	} {
		protocol, native, err := SplitProtocol(tc.logical)
		require.NoError(t, err, tc.logical)
		assert.Equal(t, tc.protocol, protocol, tc.logical)
		assert.Equal(t, tc.native, native, tc.logical)
	}
}

func TestSplitProtocolUnsupported(t *testing.T) {
	_, _, err := SplitProtocol("abfs://bucket/file.xml")
	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "abfs")
}

func TestSupportsVersioning(t *testing.T) {
	assert.True(t, ProtocolFile.SupportsVersioning())
	assert.True(t, ProtocolS3.SupportsVersioning())
	assert.True(t, ProtocolGCS.SupportsVersioning())
	assert.False(t, ProtocolHTTP.SupportsVersioning())
	assert.False(t, ProtocolHTTPS.SupportsVersioning())
}

func TestSplitBucket(t *testing.T) {
	bucket, key, err := splitBucket("bucket/nested/file.xml")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "nested/file.xml", key)

	_, _, err = splitBucket("bucketonly")
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestResolverUnknownProtocol(t *testing.T) {
	r := &Resolver{factories: map[Protocol]StoreFactory{}}
	_, _, err := r.Resolve(context.Background(), ProtocolFile, "/tmp/x", BackendConfig{})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
