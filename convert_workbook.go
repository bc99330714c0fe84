// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package ragmark

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ConvertWorkbook converts a spreadsheet (xlsx, legacy xls or csv) into a
// Markdown file of pipe tables, one section per sheet, under outputDir.
func (c *Converter) ConvertWorkbook(ctx context.Context, path, outputDir string) (*ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var md string
	var sheetCount int
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		md, sheetCount, err = renderXLSX(path)
	case ".xls":
		md, sheetCount, err = renderXLS(path)
	case ".csv":
		md, sheetCount, err = renderCSV(path)
	default:
		return nil, &UnsupportedFormatError{Extension: strings.ToLower(filepath.Ext(path))}
	}
	if err != nil {
		return nil, err
	}

	body := CleanMarkdown(md)
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("workbook %q: no sheet data", path)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	front, err := renderFrontmatter(articleFrontmatter{
		Title:              title,
		SourceType:         "workbook",
		SourceFile:         filepath.Base(path),
		RetrievedDate:      today(),
		ReadingTimeMinutes: readingTime(body),
		ConverterVersion:   Version,
	})
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(outputDir, outputFilename("", title))
	if err := writeFileAtomic(outputPath, []byte(front+"\n"+body)); err != nil {
		return nil, err
	}

	c.logger.Info("workbook converted", "path", path, "output", outputPath, "sheets", sheetCount)

	return &ConversionResult{
		OutputPath: outputPath,
		Title:      title,
		Message:    fmt.Sprintf("converted workbook with %d sheet(s)", sheetCount),
	}, nil
}

func renderXLSX(path string) (string, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", 0, &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	var md strings.Builder
	count := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&md, "## %s\n\n", sheet)
		md.WriteString(RenderMarkdownTable(rows))
		md.WriteString("\n")
		count++
	}
	return md.String(), count, nil
}

func renderXLS(path string) (string, int, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return "", 0, &OpenError{Path: path, Err: err}
	}

	var md strings.Builder
	count := 0
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		var rows [][]string
		maxRow := int(sheet.MaxRow)
		for rowIdx := 0; rowIdx <= maxRow; rowIdx++ {
			row := sheet.Row(rowIdx)
			if row == nil {
				continue
			}
			var cells []string
			lastCol := row.LastCol()
			for colIdx := 0; colIdx < lastCol; colIdx++ {
				cells = append(cells, row.Col(colIdx))
			}
			rows = append(rows, cells)
		}
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&md, "## %s\n\n", sheetName)
		md.WriteString(RenderMarkdownTable(rows))
		md.WriteString("\n")
		count++
	}
	return md.String(), count, nil
}

func renderCSV(path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, &OpenError{Path: path, Err: err}
	}
	text := decodeText(data, "")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", 0, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return "", 0, nil
	}
	return RenderMarkdownTable(records), 1, nil
}
