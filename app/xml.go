package main

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
)

const (
	xmlRoot = "data"
	xmlItem = "item"
)

// marshalXML renders payload under a <data> root. The payload is first reduced to its JSON
// form so element names follow the json tags of the response types. Object keys are
// written in sorted order, array elements repeat the element name of their field and a
// top level array uses <item>.
func marshalXML(payload any) ([]byte, error) {
	js, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	if err := encodeXML(enc, xmlRoot, tree, true); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeXML(enc *xml.Encoder, name string, v any, root bool) error {
	if arr, ok := v.([]any); ok && !root {
		for _, item := range arr {
			if err := encodeXML(enc, name, item, false); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch t := v.(type) {
	case nil:
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if err := encodeXML(enc, k, t[k], false); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range t {
			if err := encodeXML(enc, xmlItem, item, false); err != nil {
				return err
			}
		}
	default:
		if err := enc.EncodeToken(xml.CharData(fmt.Sprint(t))); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}
