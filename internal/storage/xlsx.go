// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package storage

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads one worksheet of name as a dataframe. An empty sheet selects
// the first worksheet. Cells are read raw so numbers keep full precision and
// date cells arrive as Excel serial numbers.
func (s *Store) ReadXLSX(name, sheet string) (dataframe.DataFrame, error) {
	data, err := s.ReadFile(name)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := DecodeXLSX(data, sheet)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse %s: %w: %w", name, ErrUnreadable, err)
	}
	return df, nil
}

// DecodeXLSX parses a workbook held in memory. Blank rows are skipped.
func DecodeXLSX(data []byte, sheet string) (dataframe.DataFrame, error) {
	var df dataframe.DataFrame
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return df, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return df, fmt.Errorf("worksheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return df, fmt.Errorf("read worksheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return df, fmt.Errorf("worksheet %q is empty", sheet)
	}

	var body [][]string
	for _, r := range rows[1:] {
		if !isBlank(r) {
			body = append(body, r)
		}
	}
	return NewFrame(rows[0], body)
}

// EncodeXLSX writes df into a single-sheet workbook. Numeric cells are stored
// as numbers and NA cells are left empty.
func EncodeXLSX(df dataframe.DataFrame, sheet string) ([]byte, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, err
		}
	}

	for c, name := range df.Names() {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
		col := df.Col(name)
		for r := 0; r < col.Len(); r++ {
			e := col.Elem(r)
			if e.IsNA() {
				continue
			}
			var value interface{} = e.String()
			if col.Type() == series.Float {
				value = e.Float()
			} else if n, ok := ParseNumber(e.String()); ok {
				value = n
			}
			if cell, err = excelize.CoordinatesToCellName(c+1, r+2); err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
