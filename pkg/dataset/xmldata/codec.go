// Copyright © 2018 One Concern

package xmldata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/oneconcern/datakit/pkg/dataset"
	"github.com/spf13/cast"
)

// codec argument keys, honored in save_args; decoding infers element
// names from the document itself
const (
	rootKey   = "root"
	rowKey    = "row"
	indentKey = "indent"

	defaultRoot = "data"
	defaultRow  = "row"
)

// Codec translates tables to XML documents shaped as
//
//	<data>
//	  <row><col1>v</col1><col2>v</col2></row>
//	  ...
//	</data>
//
// Element names for the document root and rows come from the "root" and
// "row" arguments; column names come from the table itself. No schema
// validation is attempted.
type Codec struct{}

var _ dataset.Codec = Codec{}

// Decode parses an XML document into a table. Column order follows first
// appearance; rows missing a column get an empty cell.
func (Codec) Decode(data []byte, args map[string]interface{}) (*dataset.Table, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	table := &dataset.Table{}
	colIndex := map[string]int{}

	var (
		depth    int
		row      map[string]string
		colName  string
		colValue bytes.Buffer
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML document: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				row = make(map[string]string)
			case 3:
				colName = t.Name.Local
				colValue.Reset()
				if _, ok := colIndex[colName]; !ok {
					colIndex[colName] = len(table.Columns)
					table.Columns = append(table.Columns, colName)
				}
			}
		case xml.CharData:
			if depth == 3 {
				colValue.Write(t)
			}
		case xml.EndElement:
			switch depth {
			case 3:
				row[colName] = colValue.String()
			case 2:
				cells := make([]string, len(table.Columns))
				for name, v := range row {
					cells[colIndex[name]] = v
				}
				table.Rows = append(table.Rows, cells)
			}
			depth--
		}
	}
	// earlier rows may be missing columns discovered later
	for i, cells := range table.Rows {
		if len(cells) < len(table.Columns) {
			padded := make([]string, len(table.Columns))
			copy(padded, cells)
			table.Rows[i] = padded
		}
	}
	return table, nil
}

// Encode renders a table as an XML document.
func (Codec) Encode(t *dataset.Table, args map[string]interface{}) ([]byte, error) {
	root := defaultRoot
	if v := cast.ToString(args[rootKey]); v != "" {
		root = v
	}
	rowName := defaultRow
	if v := cast.ToString(args[rowKey]); v != "" {
		rowName = v
	}

	var buf bytes.Buffer
	encoder := xml.NewEncoder(&buf)
	if cast.ToBool(args[indentKey]) {
		encoder.Indent("", "  ")
	}

	rootElem := xml.StartElement{Name: xml.Name{Local: root}}
	rowElem := xml.StartElement{Name: xml.Name{Local: rowName}}
	if err := encoder.EncodeToken(rootElem); err != nil {
		return nil, err
	}
	for _, cells := range t.Rows {
		if len(cells) != len(t.Columns) {
			return nil, fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
		}
		if err := encoder.EncodeToken(rowElem); err != nil {
			return nil, err
		}
		for i, col := range t.Columns {
			colElem := xml.StartElement{Name: xml.Name{Local: col}}
			if err := encoder.EncodeToken(colElem); err != nil {
				return nil, err
			}
			if err := encoder.EncodeToken(xml.CharData(cells[i])); err != nil {
				return nil, err
			}
			if err := encoder.EncodeToken(colElem.End()); err != nil {
				return nil, err
			}
		}
		if err := encoder.EncodeToken(rowElem.End()); err != nil {
			return nil, err
		}
	}
	if err := encoder.EncodeToken(rootElem.End()); err != nil {
		return nil, err
	}
	if err := encoder.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
