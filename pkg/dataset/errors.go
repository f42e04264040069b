// Copyright © 2018 One Concern

package dataset

import (
	"github.com/oneconcern/datakit/pkg/errors"
)

// The error taxonomy callers can rely on:
//
//   - ConfigError: invalid configuration, raised from constructors only
//   - VersionNotFoundError: no resolvable version on load
//   - VersionExistsError: save target already occupied
//   - LoadError / SaveError: any backend or codec failure, wrapping the cause
//
// Nothing else escapes Load/Save/Exists untyped.

// baseError aliases errors.Error so the embedded field name does not
// shadow the promoted Error() method on the typed errors below.
type baseError = errors.Error

// ConfigError reports invalid or unsupported dataset configuration,
// detected at construction time.
type ConfigError struct {
	*baseError
}

func newConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{baseError: errors.Errorf(format, args...)}
}

// VersionNotFoundError reports that a load could not resolve any version.
// Exists() swallows it to false rather than propagating it.
type VersionNotFoundError struct {
	*baseError
}

func newVersionNotFoundError(format string, args ...interface{}) *VersionNotFoundError {
	return &VersionNotFoundError{baseError: errors.Errorf(format, args...)}
}

// VersionExistsError reports a save target already occupied, either by a
// previously written version or by a conflicting unversioned file.
// Versions are immutable once written.
type VersionExistsError struct {
	*baseError
}

func newVersionExistsError(format string, args ...interface{}) *VersionExistsError {
	return &VersionExistsError{baseError: errors.Errorf(format, args...)}
}

// LoadError wraps any backend read or codec decode failure, including a
// missing file at load time.
type LoadError struct {
	*baseError
}

func newLoadError(handle *Handle, cause error) *LoadError {
	return &LoadError{
		baseError: errors.Errorf("Failed while loading data from data set %s", handle).Wrap(cause),
	}
}

// SaveError wraps any backend write or codec encode failure.
type SaveError struct {
	*baseError
}

func newSaveError(handle *Handle, cause error) *SaveError {
	return &SaveError{
		baseError: errors.Errorf("Failed while saving data to data set %s", handle).Wrap(cause),
	}
}
