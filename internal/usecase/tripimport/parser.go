// Package tripimport приводит загруженные файлы поездок (CSV/TSV, XML, XLSX)
// к единому виду domain.TripRow.
package tripimport

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/errors"
)

// ParseResult - строки, которые удалось нормализовать, и число отброшенных
type ParseResult struct {
	Rows     []domain.TripRow      `json:"rows"`
	Dropped  int                   `json:"dropped"`
	Detected domain.DetectedFields `json:"detected"`
}

// File - один загруженный файл
type File struct {
	Name   string
	Reader io.Reader
}

// FileResult - результат разбора одного файла; ошибка одного файла не мешает остальным
type FileResult struct {
	Name   string
	Result *ParseResult
	Err    error
}

// ParseFile выбирает разборщик по расширению, а без него - по содержимому
func ParseFile(name string, r io.Reader) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml":
		return ParseXML(r)
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	case ".csv", ".tsv", ".txt":
		return ParseDelimited(r)
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.ErrInputParse.Wrap(err)
	}
	head = bytes.TrimLeft(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf")), " \t\r\n")
	switch {
	case bytes.HasPrefix(head, []byte("PK\x03\x04")):
		return ParseXLSX(br)
	case bytes.HasPrefix(head, []byte("<")):
		return ParseXML(br)
	}
	return ParseDelimited(br)
}

// ParseFiles разбирает несколько файлов по порядку
func ParseFiles(files []File) []FileResult {
	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		res, err := ParseFile(f.Name, f.Reader)
		results = append(results, FileResult{Name: f.Name, Result: res, Err: err})
	}
	return results
}

// MergeRows склеивает строки успешно разобранных файлов и перенумеровывает их
func MergeRows(results []FileResult) []domain.TripRow {
	var rows []domain.TripRow
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			continue
		}
		for _, row := range r.Result.Rows {
			row.Index = len(rows)
			rows = append(rows, row)
		}
	}
	return rows
}
