// Copyright © 2018 One Concern

// Package xmldata implements the XML flavor of the tabular dataset
// family: tables persisted as XML documents through the shared versioned
// persistence handle.
package xmldata

import (
	"context"

	"github.com/oneconcern/datakit/pkg/dataset"
)

// typeName shows up in diagnostics and error messages
const typeName = "XMLDataSet"

// DataSet loads and saves tables as XML documents, across local disks and
// remote object stores, with optional immutable versioning.
type DataSet struct {
	*dataset.Handle
}

// New builds an XML dataset from its configuration.
func New(ctx context.Context, cfg dataset.Config, opts ...dataset.HandleOption) (*DataSet, error) {
	h, err := dataset.NewHandle(ctx, typeName, Codec{}, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &DataSet{Handle: h}, nil
}

// FromMap builds an XML dataset from a catalog-style configuration map.
func FromMap(ctx context.Context, m map[string]interface{}, opts ...dataset.HandleOption) (*DataSet, error) {
	cfg, err := dataset.FromMap(m)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}
