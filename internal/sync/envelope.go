// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package sync

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/goccy/go-json"

	"github.com/tomtom215/footfall/internal/storage"
)

// maxReplyInError bounds the server reply quoted inside an error.
const maxReplyInError = 2048

// ExpectFile returns the spreadsheet bytes of resp. A JSON or empty reply
// fails with ErrNotFile and the reply attached.
func ExpectFile(resp *Response) ([]byte, error) {
	if len(resp.Body) > 0 && !resp.IsJSON() {
		return resp.Body, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFile, quoteReply(resp.Body))
}

// envelope is the reporting API's JSON reply. msg is an object carrying data
// on success and may be a plain string on failure.
type envelope struct {
	Msg json.RawMessage `json:"msg"`
}

// EnvelopeRows converts the rows under msg.data into a frame. An empty or
// missing data array fails with ErrNoData.
func EnvelopeRows(resp *Response) (dataframe.DataFrame, error) {
	var env envelope
	if err := decodeNumbers(resp.Body, &env); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("decode reply: %w (%s)", err, quoteReply(resp.Body))
	}

	var msg struct {
		Data []Row `json:"data"`
	}
	if len(env.Msg) == 0 || decodeNumbers(env.Msg, &msg) != nil || len(msg.Data) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrNoData, quoteReply(resp.Body))
	}
	return RowsToFrame(msg.Data)
}

// Row is one JSON object with its keys in document order.
type Row struct {
	Keys   []string
	Values map[string]interface{}
}

// UnmarshalJSON reads an object, keeping the order of its keys. A repeated
// key keeps its first position and its last value.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row is not an object: %s", quoteReply(data))
	}
	r.Keys = r.Keys[:0]
	r.Values = make(map[string]interface{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		if _, dup := r.Values[key]; !dup {
			r.Keys = append(r.Keys, key)
		}
		r.Values[key] = v
	}
	_, err = dec.Token()
	return err
}

// RowsToFrame flattens JSON objects into a frame of string columns, one per
// key in first-seen order. Nested values stay JSON text; null and missing
// keys are empty cells.
func RowsToFrame(rows []Row) (dataframe.DataFrame, error) {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range rows {
		for _, k := range r.Keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = make([]string, len(cols))
		for j, c := range cols {
			cells[i][j] = formatCell(r.Values[c])
		}
	}
	return storage.NewFrame(cols, cells)
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func decodeNumbers(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func quoteReply(body []byte) string {
	if len(body) == 0 {
		return "(empty reply)"
	}
	if len(body) > maxReplyInError {
		return string(body[:maxReplyInError]) + "... (truncated)"
	}
	return string(body)
}
