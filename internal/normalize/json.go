package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var errUnsupportedJSON = errors.New("json must be an array of objects or an object of arrays or objects")

// orderedObject is a decoded JSON object that remembers key order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func parseJSON(data []byte) ([]string, [][]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	root, err := decodeOrdered(decoder)
	if err != nil {
		return nil, nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("decode json: unexpected data after top-level value")
	}

	switch typed := root.(type) {
	case []any:
		return recordsTable(typed)
	case *orderedObject:
		return columnsTable(typed)
	default:
		return nil, nil, errUnsupportedJSON
	}
}

func decodeOrdered(decoder *json.Decoder) (any, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := token.(json.Delim)
	if !ok {
		return token, nil
	}
	switch delim {
	case '{':
		object := &orderedObject{values: make(map[string]any)}
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyToken.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyToken)
			}
			value, err := decodeOrdered(decoder)
			if err != nil {
				return nil, err
			}
			if _, seen := object.values[key]; !seen {
				object.keys = append(object.keys, key)
			}
			object.values[key] = value
		}
		if _, err := decoder.Token(); err != nil {
			return nil, err
		}
		return object, nil
	case '[':
		items := make([]any, 0)
		for decoder.More() {
			item, err := decodeOrdered(decoder)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := decoder.Token(); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// recordsTable handles [{"a": 1}, {"a": 2, "b": 3}].
func recordsTable(records []any) ([]string, [][]any, error) {
	columns := make([]string, 0)
	seen := make(map[string]struct{})
	objects := make([]*orderedObject, 0, len(records))
	for _, record := range records {
		object, ok := record.(*orderedObject)
		if !ok {
			return nil, nil, errUnsupportedJSON
		}
		for _, key := range object.keys {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
		objects = append(objects, object)
	}
	if len(columns) == 0 {
		return nil, nil, ErrNoColumns
	}

	rows := make([][]any, 0, len(objects))
	for _, object := range objects {
		row := make([]any, len(columns))
		for i, column := range columns {
			cell, err := jsonCell(object.values[column])
			if err != nil {
				return nil, nil, err
			}
			row[i] = cell
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// columnsTable handles {"a": [1, 2]} and {"a": {"0": 1, "1": 2}}.
func columnsTable(object *orderedObject) ([]string, [][]any, error) {
	if len(object.keys) == 0 {
		return nil, nil, ErrNoColumns
	}
	columns := append([]string(nil), object.keys...)

	switch object.values[columns[0]].(type) {
	case []any:
		return arrayColumnsTable(columns, object)
	case *orderedObject:
		return indexedColumnsTable(columns, object)
	default:
		return nil, nil, errUnsupportedJSON
	}
}

func arrayColumnsTable(columns []string, object *orderedObject) ([]string, [][]any, error) {
	length := 0
	arrays := make([][]any, len(columns))
	for i, column := range columns {
		values, ok := object.values[column].([]any)
		if !ok {
			return nil, nil, errUnsupportedJSON
		}
		arrays[i] = values
		length = max(length, len(values))
	}

	rows := make([][]any, length)
	for r := range rows {
		row := make([]any, len(columns))
		for c, values := range arrays {
			if r >= len(values) {
				continue
			}
			cell, err := jsonCell(values[r])
			if err != nil {
				return nil, nil, err
			}
			row[c] = cell
		}
		rows[r] = row
	}
	return columns, rows, nil
}

func indexedColumnsTable(columns []string, object *orderedObject) ([]string, [][]any, error) {
	index := make([]string, 0)
	seen := make(map[string]struct{})
	inner := make([]*orderedObject, len(columns))
	for i, column := range columns {
		values, ok := object.values[column].(*orderedObject)
		if !ok {
			return nil, nil, errUnsupportedJSON
		}
		inner[i] = values
		for _, key := range values.keys {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				index = append(index, key)
			}
		}
	}

	rows := make([][]any, 0, len(index))
	for _, key := range index {
		row := make([]any, len(columns))
		for c, values := range inner {
			cell, err := jsonCell(values.values[key])
			if err != nil {
				return nil, nil, err
			}
			row[c] = cell
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func jsonCell(value any) (any, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case string:
		return typed, nil
	case json.Number:
		return typed.String(), nil
	case bool:
		return strconv.FormatBool(typed), nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil, fmt.Errorf("encode nested json value: %w", err)
		}
		return string(encoded), nil
	}
}
