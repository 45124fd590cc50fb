// Package export renders entity tables as CSV, zipped CSV and a content hash.
package export

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Record is a row that knows its CSV fields.
type Record interface {
	CSVRecord() []string
}

// WriteCSV writes header followed by one line per row.
func WriteCSV[T Record](w io.Writer, header []string, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.CSVRecord()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the CSV rendering of rows.
func CSV[T Record](header []string, rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, header, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteZip writes a zip archive holding data as a single entry called name.
func WriteZip(w io.Writer, name string, modified time.Time, data []byte) error {
	zw := zip.NewWriter(w)
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write zip entry: %w", err)
	}
	return zw.Close()
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
