package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ReceiptStore removes stored receipt artifacts of deleted bookings.
type ReceiptStore interface {
	Remove(bookingCode string) error
}

// FileReceiptStore keeps receipts as <Dir>/<booking code>.pdf.
type FileReceiptStore struct {
	Dir string
}

// Path returns the receipt location for code with path separators neutralized.
func (s FileReceiptStore) Path(code string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(strings.TrimSpace(code))
	return filepath.Join(s.Dir, name+".pdf")
}

// Remove deletes the receipt; a missing file is not an error.
func (s FileReceiptStore) Remove(code string) error {
	if strings.TrimSpace(code) == "" || s.Dir == "" {
		return nil
	}
	if err := os.Remove(s.Path(code)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
