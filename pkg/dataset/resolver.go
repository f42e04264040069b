// Copyright © 2018 One Concern

package dataset

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/oneconcern/datakit/pkg/storage"
	"github.com/oneconcern/datakit/pkg/storage/gcs"
	"github.com/oneconcern/datakit/pkg/storage/httpfs"
	"github.com/oneconcern/datakit/pkg/storage/localfs"
	"github.com/oneconcern/datakit/pkg/storage/sthree"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Protocol identifies the storage backend family a dataset lives on.
type Protocol string

const (
	// ProtocolFile addresses the local file system
	ProtocolFile Protocol = "file"

	// ProtocolS3 addresses AWS S3 (or compatible) buckets
	ProtocolS3 Protocol = "s3"

	// ProtocolGCS addresses Google Cloud Storage buckets
	ProtocolGCS Protocol = "gcs"

	// ProtocolHTTP addresses plain web servers, read-only
	ProtocolHTTP Protocol = "http"

	// ProtocolHTTPS is ProtocolHTTP over TLS
	ProtocolHTTPS Protocol = "https"
)

// ProtocolDelimiter separates the protocol prefix from the native path in
// a logical path.
const ProtocolDelimiter = "://"

// SupportsVersioning reports whether datasets on this protocol may be
// versioned. HTTP(S) backends are read-only and can never be.
func (p Protocol) SupportsVersioning() bool {
	return p != ProtocolHTTP && p != ProtocolHTTPS
}

// SplitProtocol resolves a logical path into its protocol and the
// backend-native path.
//
// Paths without a protocol prefix are local files and are normalized to
// absolute, POSIX-separated form. HTTP(S) paths stay whole URLs, since
// the http store addresses objects by URL.
func SplitProtocol(logicalPath string) (Protocol, string, error) {
	if !strings.Contains(logicalPath, ProtocolDelimiter) {
		native, err := normalizeLocal(logicalPath)
		return ProtocolFile, native, err
	}
	parts := strings.SplitN(logicalPath, ProtocolDelimiter, 2)
	prefix, rest := parts[0], parts[1]
	switch Protocol(strings.ToLower(prefix)) {
	case ProtocolFile:
		native, err := normalizeLocal(rest)
		return ProtocolFile, native, err
	case ProtocolS3:
		return ProtocolS3, rest, nil
	case ProtocolGCS, Protocol("gs"):
		return ProtocolGCS, rest, nil
	case ProtocolHTTP:
		return ProtocolHTTP, logicalPath, nil
	case ProtocolHTTPS:
		return ProtocolHTTPS, logicalPath, nil
	default:
		return "", "", newConfigError("Protocol '%s' is not supported for path '%s'", prefix, logicalPath)
	}
}

func normalizeLocal(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", newConfigError("Cannot resolve path '%s': %v", p, err)
	}
	return filepath.ToSlash(abs), nil
}

// BackendConfig carries everything a store factory needs: the one
// explicit channel for backend options. Format-specific load/save
// argument maps never reach the factories.
type BackendConfig struct {
	Credentials map[string]interface{}
	FSArgs      map[string]interface{}
	Logger      *zap.Logger
}

// StoreFactory builds the store for one dataset instance and rebases the
// native path to a key inside that store.
type StoreFactory func(ctx context.Context, nativePath string, cfg BackendConfig) (storage.Store, string, error)

// Resolver maps protocols to store factories. Factories are injected at
// construction rather than registered in process-global state, so tests
// and embedders can swap backends per dataset.
type Resolver struct {
	factories map[Protocol]StoreFactory
}

// NewResolver returns a resolver covering all built-in protocols.
func NewResolver() *Resolver {
	r := &Resolver{factories: make(map[Protocol]StoreFactory)}
	r.Register(ProtocolFile, fileFactory)
	r.Register(ProtocolS3, s3Factory)
	r.Register(ProtocolGCS, gcsFactory)
	r.Register(ProtocolHTTP, httpFactory)
	r.Register(ProtocolHTTPS, httpFactory)
	return r
}

// Register installs or replaces the factory for a protocol.
func (r *Resolver) Register(p Protocol, f StoreFactory) {
	r.factories[p] = f
}

// Resolve builds the store handle for a native path on the given protocol.
func (r *Resolver) Resolve(ctx context.Context, p Protocol, nativePath string, cfg BackendConfig) (storage.Store, string, error) {
	factory, ok := r.factories[p]
	if !ok {
		return nil, "", newConfigError("Protocol '%s' is not supported", p)
	}
	store, base, err := factory(ctx, nativePath, cfg)
	if err != nil {
		return nil, "", err
	}
	return storage.Instrument(cfg.Logger, store), base, nil
}

func fileFactory(_ context.Context, nativePath string, _ BackendConfig) (storage.Store, string, error) {
	return localfs.New(nil), nativePath, nil
}

func s3Factory(_ context.Context, nativePath string, cfg BackendConfig) (storage.Store, string, error) {
	bucket, key, err := splitBucket(nativePath)
	if err != nil {
		return nil, "", err
	}
	awsConfig := aws.NewConfig()
	if id := cast.ToString(cfg.Credentials["key"]); id != "" {
		awsConfig = awsConfig.WithCredentials(
			credentials.NewStaticCredentials(id, cast.ToString(cfg.Credentials["secret"]), ""))
	}
	if region := cast.ToString(cfg.FSArgs["region"]); region != "" {
		awsConfig = awsConfig.WithRegion(region)
	}
	if endpoint := cast.ToString(cfg.FSArgs["endpoint"]); endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	store := sthree.New(
		sthree.Bucket(bucket),
		sthree.AWSConfig(awsConfig),
		sthree.Logger(cfg.Logger),
	)
	return store, key, nil
}

func gcsFactory(ctx context.Context, nativePath string, cfg BackendConfig) (storage.Store, string, error) {
	bucket, key, err := splitBucket(nativePath)
	if err != nil {
		return nil, "", err
	}
	store, err := gcs.New(ctx, bucket,
		cast.ToString(cfg.Credentials["credential_file"]),
		gcs.Logger(cfg.Logger),
	)
	if err != nil {
		return nil, "", err
	}
	return store, key, nil
}

func httpFactory(_ context.Context, nativePath string, cfg BackendConfig) (storage.Store, string, error) {
	opts := []httpfs.Option{httpfs.Client(http.DefaultClient)}
	if headers := cast.ToStringMapString(cfg.FSArgs["headers"]); len(headers) > 0 {
		opts = append(opts, httpfs.Headers(headers))
	}
	return httpfs.New(opts...), nativePath, nil
}

func splitBucket(nativePath string) (string, string, error) {
	parts := strings.SplitN(nativePath, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", newConfigError("Path '%s' must name a bucket and an object key", nativePath)
	}
	return parts[0], parts[1], nil
}
