package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/extrame/xls"
	"github.com/ledongthuc/pdf"
	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"

	"github.com/studyowl/studyowl/internal/core"
)

// Text extracts plain text from an uploaded file, dispatching on the
// declared extension of name. Supported: txt, md, csv, xlsx, xls, docx, pdf.
// An extension outside that set yields *core.UnsupportedFormatError; a parse
// failure inside a supported format yields *core.ExtractionError.
func Text(name string, data []byte) (string, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")

	var (
		text string
		err  error
	)
	switch format {
	case "txt", "md":
		text = plainText(data)
	case "csv":
		text, err = csvText(data)
	case "xlsx":
		text, err = xlsxText(data)
	case "xls":
		text, err = xlsText(data)
	case "docx":
		text, err = docxText(data)
	case "pdf":
		text, err = pdfText(data)
	default:
		return "", &core.UnsupportedFormatError{Format: format}
	}
	if err != nil {
		return "", &core.ExtractionError{File: name, Err: err}
	}
	return text, nil
}

// plainText treats the bytes as UTF-8, dropping invalid sequences.
func plainText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

// csvText renders the whole delimited table, header included, as a string.
func csvText(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, row)
	}
	return renderTable(rows), nil
}

// xlsxText renders every row of the first sheet of a spreadsheet.
func xlsxText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("read xlsx rows: %w", err)
	}
	return renderTable(rows), nil
}

// xlsText renders every row of the first sheet of a legacy Excel workbook.
func xlsText(data []byte) (string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", nil
	}
	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		var cells []string
		for j := row.FirstCol(); j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return renderTable(rows), nil
}

// docxText concatenates the document's paragraphs in order, newline-joined.
func docxText(data []byte) (string, error) {
	body, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("convert docx: %w", err)
	}
	var paragraphs []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// pdfText concatenates per-page text, skipping pages with nothing
// extractable, newline-joined.
func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}

// renderTable prints all rows and columns with the first row as header,
// mirroring how the knowledge base expects tabular uploads to read.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(rows[0])
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range rows[1:] {
		table.Append(row)
	}
	table.Render()
	return buf.String()
}
