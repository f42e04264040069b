/*
Package datakit provides versioned, storage-agnostic persistence for
tabular datasets.

Datasets address their data by logical path, resolve it across storage
protocols (local disk, S3, GCS, HTTP), and optionally keep every save as
an immutable timestamped version. Format specifics are pluggable codecs;
XML is provided under pkg/dataset/xmldata.
*/
package datakit
