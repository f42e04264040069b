package xmldata

import (
	"testing"

	"github.com/oneconcern/datakit/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyTable() *dataset.Table {
	return &dataset.Table{
		Columns: []string{"col1", "col2", "col3"},
		Rows:    [][]string{{"1", "4", "5"}, {"2", "5", "6"}},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	c := Codec{}
	data, err := c.Encode(dummyTable(), nil)
	require.NoError(t, err)

	reloaded, err := c.Decode(data, nil)
	require.NoError(t, err)
	assert.True(t, dummyTable().Equal(reloaded))
}

func TestCodecEncodeShape(t *testing.T) {
	c := Codec{}
	data, err := c.Encode(dummyTable(), nil)
	require.NoError(t, err)
	assert.Equal(t,
		"<data><row><col1>1</col1><col2>4</col2><col3>5</col3></row>"+
			"<row><col1>2</col1><col2>5</col2><col3>6</col3></row></data>",
		string(data))
}

func TestCodecCustomElementNames(t *testing.T) {
	c := Codec{}
	args := map[string]interface{}{"root": "rows", "row": "entry"}
	data, err := c.Encode(dummyTable(), args)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<rows><entry>")

	reloaded, err := c.Decode(data, nil)
	require.NoError(t, err)
	assert.True(t, dummyTable().Equal(reloaded))
}

func TestCodecIndent(t *testing.T) {
	c := Codec{}
	data, err := c.Encode(dummyTable(), map[string]interface{}{"indent": true})
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  <row>")

	reloaded, err := c.Decode(data, nil)
	require.NoError(t, err)
	assert.True(t, dummyTable().Equal(reloaded))
}

func TestCodecEscaping(t *testing.T) {
	c := Codec{}
	table := &dataset.Table{
		Columns: []string{"note"},
		Rows:    [][]string{{`5 < 6 & "quoted"`}},
	}
	data, err := c.Encode(table, nil)
	require.NoError(t, err)

	reloaded, err := c.Decode(data, nil)
	require.NoError(t, err)
	assert.True(t, table.Equal(reloaded))
}

func TestCodecRaggedRows(t *testing.T) {
	c := Codec{}
	doc := []byte("<data><row><a>1</a></row><row><a>2</a><b>3</b></row></data>")
	table, err := c.Decode(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	assert.Equal(t, [][]string{{"1", ""}, {"2", "3"}}, table.Rows)
}

func TestCodecMalformed(t *testing.T) {
	c := Codec{}
	_, err := c.Decode([]byte("<data><row></data>"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed XML document")
}

func TestCodecMismatchedRow(t *testing.T) {
	c := Codec{}
	_, err := c.Encode(&dataset.Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1"}},
	}, nil)
	require.Error(t, err)
}
