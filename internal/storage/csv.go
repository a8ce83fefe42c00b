// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// ReadCSV loads name as a dataframe. The first record is the header; header
// names are trimmed and a UTF-8 BOM is dropped.
func (s *Store) ReadCSV(name string) (dataframe.DataFrame, error) {
	data, err := s.ReadFile(name)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := DecodeCSV(data)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse %s: %w: %w", name, ErrUnreadable, err)
	}
	return df, nil
}

// DecodeCSV parses CSV bytes into a frame of string columns. Ragged records
// are accepted.
func DecodeCSV(data []byte) (dataframe.DataFrame, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no header row")
	}
	return NewFrame(records[0], records[1:])
}

// EncodeCSV writes df with its header.
func EncodeCSV(df dataframe.DataFrame) ([]byte, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	var buf bytes.Buffer
	if err := df.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV saves df as name.
func (s *Store) WriteCSV(name string, df dataframe.DataFrame) error {
	data, err := EncodeCSV(df)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.WriteFile(name, data)
}
