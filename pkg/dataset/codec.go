// Copyright © 2018 One Concern

package dataset

// Codec is the format-specific collaborator of a Handle: it encodes and
// decodes tables to the dataset's byte format. Argument maps are passed
// through verbatim from the dataset configuration.
type Codec interface {
	Decode(data []byte, args map[string]interface{}) (*Table, error)
	Encode(t *Table, args map[string]interface{}) ([]byte, error)
}
