// Copyright © 2018 One Concern

package dataset

import (
	"fmt"
	"time"
)

// versionFormat renders timestamps with millisecond precision and
// filesystem-safe separators. Zero padding keeps lexical ordering of
// tokens identical to chronological ordering: any change to this layout
// must preserve that property.
const versionFormat = "2006-01-02T15.04.05.000Z"

// Version pins the load and save selectors of a versioned dataset.
// An empty selector means "most recent existing version" on load and
// "generate a new timestamped version" on save.
type Version struct {
	Load string `mapstructure:"load"`
	Save string `mapstructure:"save"`
}

func (v Version) String() string {
	return fmt.Sprintf("Version(load=%s, save='%s')", emptyAsNone(v.Load), v.Save)
}

func emptyAsNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// newVersionToken generates a fresh sortable token from the given instant.
func newVersionToken(now time.Time) string {
	return now.UTC().Format(versionFormat)
}
