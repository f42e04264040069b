// Copyright © 2018 One Concern

package dataset

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/oneconcern/datakit/pkg/dlogger"
	"github.com/oneconcern/datakit/pkg/errors"
	"github.com/oneconcern/datakit/pkg/storage"
	"github.com/oneconcern/datakit/pkg/storage/status"
	"go.uber.org/zap"
)

const storageOptionsKey = "storage_options"

// HandleOption is a functor to pass optional parameters to a Handle
type HandleOption func(*Handle)

// Logger specifies a logger for this dataset
func Logger(logger *zap.Logger) HandleOption {
	return func(h *Handle) {
		if logger != nil {
			h.l = logger
		}
	}
}

// Backends injects the protocol resolver used to build the storage handle
func Backends(r *Resolver) HandleOption {
	return func(h *Handle) {
		if r != nil {
			h.resolver = r
		}
	}
}

// Clock overrides the time source used to generate version tokens
func Clock(now func() time.Time) HandleOption {
	return func(h *Handle) {
		if now != nil {
			h.clock = now
		}
	}
}

// Handle gives any tabular-format dataset identical load/save/exists/release
// semantics: one logical path, one protocol, one lazily cached storage
// backend, optional immutable versioning.
//
// A Handle assumes single-threaded use. Concurrent processes racing to
// save the same new version are not coordinated: the no-overwrite check
// and the write are separate backend calls, and the gap between them is
// an accepted limitation.
type Handle struct {
	typeName    string
	logicalPath string
	protocol    Protocol
	basePath    string
	store       storage.Store
	codec       Codec
	version     *Version
	loadArgs    map[string]interface{}
	saveArgs    map[string]interface{}
	resolver    *Resolver
	clock       func() time.Time
	l           *zap.Logger

	// cachedSave pins the version generated by a save so that the same
	// instance's subsequent default load resolves to it. Release() drops it.
	cachedSave string
}

// NewHandle builds the persistence handle shared by concrete dataset types.
// typeName shows up in every error message and in String().
func NewHandle(ctx context.Context, typeName string, codec Codec, cfg Config, opts ...HandleOption) (*Handle, error) {
	if cfg.Filepath == "" {
		return nil, newConfigError("'filepath' is required for %s", typeName)
	}
	if codec == nil {
		return nil, newConfigError("a codec is required for %s", typeName)
	}
	h := &Handle{
		typeName:    typeName,
		logicalPath: cfg.Filepath,
		codec:       codec,
		version:     cfg.Version,
		clock:       time.Now,
		l:           dlogger.Default(),
	}
	for _, apply := range opts {
		apply(h)
	}
	if h.resolver == nil {
		h.resolver = NewResolver()
	}

	protocol, nativePath, err := SplitProtocol(cfg.Filepath)
	if err != nil {
		return nil, err
	}
	if cfg.Version != nil && !protocol.SupportsVersioning() {
		return nil, newConfigError("HTTP(s) DataSet doesn't support versioning.")
	}
	h.protocol = protocol
	h.loadArgs = h.filterArgs(cfg.LoadArgs)
	h.saveArgs = h.filterArgs(cfg.SaveArgs)

	h.store, h.basePath, err = h.resolver.Resolve(ctx, protocol, nativePath, BackendConfig{
		Credentials: cfg.Credentials,
		FSArgs:      cfg.FSArgs,
		Logger:      h.l,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// filterArgs drops the storage_options key: backend options must flow
// through fs_args or credentials, never through codec argument maps.
func (h *Handle) filterArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		if k == storageOptionsKey {
			h.l.Warn(fmt.Sprintf(
				"Dropping 'storage_options' for %s, please specify them under 'fs_args' or 'credentials'.",
				h.logicalPath))
			continue
		}
		out[k] = v
	}
	return out
}

// Load resolves the current version and decodes its contents.
//
// A missing or unresolvable version surfaces as VersionNotFoundError; any
// backend or codec failure, including a missing unversioned file, surfaces
// as LoadError wrapping the cause.
func (h *Handle) Load(ctx context.Context) (*Table, error) {
	loadPath, err := h.loadPath(ctx)
	if err != nil {
		var notFound *VersionNotFoundError
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, newLoadError(h, err)
	}
	data, err := storage.ReadAll(ctx, h.store, loadPath)
	if err != nil {
		return nil, newLoadError(h, err)
	}
	table, err := h.codec.Decode(data, h.loadArgs)
	if err != nil {
		return nil, newLoadError(h, err)
	}
	return table, nil
}

// Save encodes the table and writes it to the resolved save path.
//
// In versioned mode the target must not exist: versions are immutable
// once written. A bare file at the base path is rejected as well, since
// mixing versioned and unversioned artifacts under one logical path
// makes load resolution ambiguous.
func (h *Handle) Save(ctx context.Context, t *Table) error {
	if t == nil {
		return newSaveError(h, errors.New("cannot save a nil table"))
	}
	if h.version == nil {
		return h.saveUnversioned(ctx, t)
	}

	token := h.resolveSaveVersion()
	target := h.versionedPath(token)

	occupied, err := h.store.Has(ctx, target)
	if err != nil {
		return newSaveError(h, err)
	}
	if occupied {
		return newVersionExistsError(
			"Save path '%s' for %s must not exist if versioning is enabled.", target, h)
	}
	bare, err := h.store.Has(ctx, h.basePath)
	if err != nil {
		return newSaveError(h, err)
	}
	if bare {
		return newVersionExistsError(
			"Cannot save versioned dataset '%s' to '%s' because a file with the same name "+
				"already exists in the directory. Either remove the existing file or define "+
				"the dataset as unversioned.", path.Base(h.basePath), path.Dir(h.basePath))
	}

	data, err := h.codec.Encode(t, h.saveArgs)
	if err != nil {
		return newSaveError(h, err)
	}
	if err = h.store.Put(ctx, target, bytes.NewReader(data), storage.NoOverWrite); err != nil {
		if errors.Is(err, status.ErrExists) {
			// lost the check-then-write race to another writer
			return newVersionExistsError(
				"Save path '%s' for %s must not exist if versioning is enabled.", target, h)
		}
		return newSaveError(h, err)
	}

	if loadVersion, lerr := h.resolveLoadVersion(ctx); lerr == nil && loadVersion != token {
		h.l.Warn(fmt.Sprintf("Save version '%s' did not match load version '%s' for %s",
			token, loadVersion, h))
	}
	return nil
}

func (h *Handle) saveUnversioned(ctx context.Context, t *Table) error {
	data, err := h.codec.Encode(t, h.saveArgs)
	if err != nil {
		return newSaveError(h, err)
	}
	if err = h.store.Put(ctx, h.basePath, bytes.NewReader(data), storage.OverWrite); err != nil {
		return newSaveError(h, err)
	}
	return nil
}

// Exists reports whether a load would find data. In versioned mode an
// unresolvable version answers false rather than an error.
func (h *Handle) Exists(ctx context.Context) (bool, error) {
	loadPath, err := h.loadPath(ctx)
	if err != nil {
		var notFound *VersionNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return h.store.Has(ctx, loadPath)
}

// Release invalidates the storage cache entry for this dataset's base
// path and forgets the pinned save version, so the next operation sees
// out-of-band changes to the backing store.
func (h *Handle) Release(ctx context.Context) {
	h.store.Invalidate(ctx, h.basePath)
	h.cachedSave = ""
}

// Protocol names the storage backend family this dataset resolved to.
func (h *Handle) Protocol() Protocol {
	return h.protocol
}

// BasePath is the backend-native path of the dataset within its store.
func (h *Handle) BasePath() string {
	return h.basePath
}

// IsVersioned reports whether versioned mode is configured.
func (h *Handle) IsVersioned() bool {
	return h.version != nil
}

// LoadArgs returns the effective codec arguments for loads.
func (h *Handle) LoadArgs() map[string]interface{} {
	return h.loadArgs
}

// SaveArgs returns the effective codec arguments for saves.
func (h *Handle) SaveArgs() map[string]interface{} {
	return h.saveArgs
}

// String renders the dataset identity used in diagnostics: logical path,
// protocol, codec arguments and the version pair when versioning is
// configured. Credentials are never rendered.
func (h *Handle) String() string {
	parts := []string{fmt.Sprintf("filepath=%s", h.logicalPath)}
	if len(h.loadArgs) > 0 {
		parts = append(parts, "load_args="+renderArgs(h.loadArgs))
	}
	parts = append(parts, "protocol="+string(h.protocol))
	if len(h.saveArgs) > 0 {
		parts = append(parts, "save_args="+renderArgs(h.saveArgs))
	}
	if h.version != nil {
		parts = append(parts, "version="+h.version.String())
	}
	return h.typeName + "(" + strings.Join(parts, ", ") + ")"
}

func renderArgs(args map[string]interface{}) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rendered := make([]string, 0, len(keys))
	for _, k := range keys {
		rendered = append(rendered, fmt.Sprintf("%s: %v", k, args[k]))
	}
	return "{" + strings.Join(rendered, ", ") + "}"
}

// versionedPath lays a version out as <base>/<token>/<basename(base)>.
func (h *Handle) versionedPath(token string) string {
	return path.Join(h.basePath, token, path.Base(h.basePath))
}

// loadPath computes the concrete path one load or existence check reads.
// Recomputed per call: directory listings are never reused across calls.
func (h *Handle) loadPath(ctx context.Context) (string, error) {
	if h.version == nil {
		return h.basePath, nil
	}
	token, err := h.resolveLoadVersion(ctx)
	if err != nil {
		return "", err
	}
	target := h.versionedPath(token)
	has, err := h.store.Has(ctx, target)
	if err != nil {
		return "", err
	}
	if !has {
		return "", newVersionNotFoundError("Did not find version '%s' for %s", token, h)
	}
	return target, nil
}

func (h *Handle) resolveLoadVersion(ctx context.Context) (string, error) {
	if h.version.Load != "" {
		return h.version.Load, nil
	}
	if h.cachedSave != "" {
		return h.cachedSave, nil
	}
	return h.latestVersion(ctx)
}

// latestVersion scans all version directories under the base path and
// takes the lexically greatest token holding the dataset file. This is
// O(number of versions) per load; version counts are assumed small.
func (h *Handle) latestVersion(ctx context.Context) (string, error) {
	pattern := path.Join(h.basePath, "*", path.Base(h.basePath))
	matches, err := h.store.Glob(ctx, pattern)
	if err != nil {
		return "", err
	}
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, path.Base(path.Dir(m)))
	}
	if len(tokens) == 0 {
		return "", newVersionNotFoundError("Did not find any versions for %s", h)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(tokens)))
	return tokens[0], nil
}

// resolveSaveVersion pins the save token for this instance: an explicit
// selector wins, otherwise a token is generated once and reused until
// Release().
func (h *Handle) resolveSaveVersion() string {
	switch {
	case h.version.Save != "":
		h.cachedSave = h.version.Save
	case h.cachedSave == "":
		h.cachedSave = newVersionToken(h.clock())
	}
	return h.cachedSave
}
