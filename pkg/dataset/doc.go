// Copyright © 2018 One Concern

// Package dataset implements the persistence contract shared by all
// file-backed tabular datasets: logical path resolution across storage
// protocols, immutable timestamped versioning, and a uniform
// load/save/exists/release surface with a typed error taxonomy.
//
// Format specifics (XML, CSV, ...) are delegated to a Codec; storage
// specifics are delegated to pkg/storage implementations selected by
// protocol through an injectable Resolver.
package dataset
