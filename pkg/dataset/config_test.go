package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]interface{}{
		"filepath": "s3://bucket/data.xml",
		"load_args": map[string]interface{}{
			"row": "entry",
		},
		"credentials": map[string]interface{}{
			"key":    "k",
			"secret": "s",
		},
		"fs_args": map[string]interface{}{
			"region": "us-west-2",
		},
		"version": map[string]interface{}{
			"load": "2019-01-01T23.59.59.999Z",
			"save": "",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/data.xml", cfg.Filepath)
	assert.Equal(t, "entry", cfg.LoadArgs["row"])
	assert.Equal(t, "us-west-2", cfg.FSArgs["region"])
	require.NotNil(t, cfg.Version)
	assert.Equal(t, "2019-01-01T23.59.59.999Z", cfg.Version.Load)
	assert.Empty(t, cfg.Version.Save)
}

func TestFromMapMissingFilepath(t *testing.T) {
	_, err := FromMap(map[string]interface{}{
		"load_args": map[string]interface{}{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'filepath' is required")
}

func TestFromMapUnknownKey(t *testing.T) {
	_, err := FromMap(map[string]interface{}{
		"filepath": "/tmp/data.xml",
		"flepath":  "/tmp/typo.xml",
	})
	require.Error(t, err)
}
