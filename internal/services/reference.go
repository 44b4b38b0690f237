package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	intdb "cargobooking/internal/db"
	"cargobooking/internal/repositories"
)

const referencePrefix = "AB"

// ReferencePrefix is the year-scoped prefix, e.g. "AB-2025-".
func ReferencePrefix(year int) string {
	return fmt.Sprintf("%s-%d-", referencePrefix, year)
}

// FormatReference renders a reference with a sequence zero-padded to at least 3 digits.
func FormatReference(year, seq int) string {
	return fmt.Sprintf("%s%03d", ReferencePrefix(year), seq)
}

// ParseReferenceSeq extracts the numeric suffix of code under prefix. A code
// with another prefix or a non-numeric suffix yields false.
func ParseReferenceSeq(code, prefix string) (int, bool) {
	code = strings.TrimSpace(code)
	if !strings.HasPrefix(code, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(code, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ReferenceGenerator suggests the next booking reference. It reserves nothing:
// two callers can receive the same suggestion, and uniqueness is enforced when
// the booking is inserted.
type ReferenceGenerator struct {
	Bookings repositories.BookingRepository
}

// Next returns max existing sequence for the year + 1, or sequence 1 when none exists.
func (g ReferenceGenerator) Next(ctx context.Context, q intdb.Querier, year int) (string, error) {
	prefix := ReferencePrefix(year)
	maxCode, err := g.Bookings.MaxReference(ctx, q, prefix)
	if err != nil {
		return "", err
	}
	seq, _ := ParseReferenceSeq(maxCode, prefix)
	return FormatReference(year, seq+1), nil
}
