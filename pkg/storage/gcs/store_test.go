package gcs

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"testing"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/datakit/internal/rand"
	"github.com/oneconcern/datakit/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func setup(t testing.TB) (storage.Store, func()) {
	t.Helper()
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("GOOGLE_APPLICATION_CREDENTIALS not set")
	}

	ctx := context.Background()
	bucket := "deleteme-datakittest-" + rand.LetterString(15)

	client, err := gcsStorage.NewClient(ctx, option.WithScopes(gcsStorage.ScopeFullControl))
	require.NoError(t, err)
	err = client.Bucket(bucket).Create(ctx, os.Getenv("GOOGLE_PROJECT_ID"), nil)
	require.NoError(t, err, "Failed to create bucket:"+bucket)

	store, err := New(ctx, bucket, "") // Use GOOGLE_APPLICATION_CREDENTIALS env variable
	require.NoError(t, err, "failed to create gcs client")

	for key, content := range map[string]string{
		"sixteentons": "this is the text",
		"data.xml/2019-01-01T00.00.00.000Z/data.xml": "<data>1</data>",
		"data.xml/2019-01-02T00.00.00.000Z/data.xml": "<data>2</data>",
	} {
		require.NoError(t, store.Put(ctx, key, bytes.NewBufferString(content), storage.NoOverWrite))
	}

	cleanup := func() {
		for _, key := range []string{
			"sixteentons",
			"data.xml/2019-01-01T00.00.00.000Z/data.xml",
			"data.xml/2019-01-02T00.00.00.000Z/data.xml",
		} {
			_ = store.Delete(ctx, key)
		}
		_ = client.Bucket(bucket).Delete(ctx)
	}
	return store, cleanup
}

func TestHas(t *testing.T) {
	bs, cleanup := setup(t)
	defer cleanup()

	has, err := bs.Has(context.Background(), "sixteentons")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = bs.Has(context.Background(), "fifteentons")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGetPut(t *testing.T) {
	bs, cleanup := setup(t)
	defer cleanup()

	rdr, err := bs.Get(context.Background(), "sixteentons")
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text", string(b))

	err = bs.Put(context.Background(), "sixteentons", bytes.NewBufferString("x"), storage.NoOverWrite)
	require.Error(t, err)
}

func TestGlob(t *testing.T) {
	bs, cleanup := setup(t)
	defer cleanup()

	matches, err := bs.Glob(context.Background(), "data.xml/*/data.xml")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
