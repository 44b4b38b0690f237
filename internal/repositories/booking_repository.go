package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intdb "cargobooking/internal/db"
	"cargobooking/internal/domain"
	"cargobooking/internal/domain/models"
)

// BookingRepository reads and writes the bookings header table.
// Every method takes an optional Querier so it can run inside a caller's transaction.
type BookingRepository struct {
	DB *sql.DB
}

// ExistsByCode reports whether another booking already uses code. excludeID skips
// the booking's own row on edit; pass 0 on create.
func (r BookingRepository) ExistsByCode(ctx context.Context, q intdb.Querier, code string, excludeID int64) (bool, error) {
	var n int
	err := pick(q, r.DB).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE booking_id = ? AND id <> ?`,
		strings.TrimSpace(code), excludeID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MaxReference returns the highest booking_id starting with prefix, or "" when none.
// Longer codes sort first so AB-2025-1000 beats AB-2025-999.
func (r BookingRepository) MaxReference(ctx context.Context, q intdb.Querier, prefix string) (string, error) {
	var code string
	err := pick(q, r.DB).QueryRowContext(ctx, `
		SELECT booking_id
		FROM bookings
		WHERE booking_id LIKE ?
		ORDER BY CHAR_LENGTH(booking_id) DESC, booking_id DESC
		LIMIT 1
	`, prefix+"%").Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

// Insert writes a booking header and returns the surrogate id. Legacy single-container
// columns are written as empty strings when the schema still has them.
func (r BookingRepository) Insert(ctx context.Context, q intdb.Querier, b models.Booking, caps intdb.Capabilities) (int64, error) {
	cols := []string{
		"booking_id",
		"client_id",
		"container_count",
		"from_location_id",
		"to_location_id",
		"status",
		"created_by",
		"updated_by",
	}
	args := []any{
		b.BookingCode,
		b.ClientID,
		b.ContainerCount,
		intdb.NullID(b.FromLocationID),
		intdb.NullID(b.ToLocationID),
		b.Status,
		b.CreatedBy,
		b.UpdatedBy,
	}
	if caps.HasLegacyColumns {
		cols = append(cols, "container_type", "container_number")
		args = append(args, "", "")
	}

	ph := make([]string, 0, len(cols))
	for range cols {
		ph = append(ph, "?")
	}

	stmt := `INSERT INTO bookings (` + strings.Join(cols, ", ") + `, created_at, updated_at)
		VALUES (` + strings.Join(ph, ", ") + `, NOW(), NOW())`
	res, err := pick(q, r.DB).ExecContext(ctx, stmt, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, duplicateReference(b.BookingCode, err)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetHeader loads the mutable header fields of one booking.
func (r BookingRepository) GetHeader(ctx context.Context, q intdb.Querier, id int64) (models.Booking, error) {
	var (
		b        models.Booking
		from, to sql.NullInt64
	)
	err := pick(q, r.DB).QueryRowContext(ctx, `
		SELECT id, booking_id, client_id, container_count, from_location_id, to_location_id,
		       COALESCE(status, ''), COALESCE(created_by, 0), COALESCE(updated_by, 0)
		FROM bookings
		WHERE id = ?
		LIMIT 1
	`, id).Scan(
		&b.ID,
		&b.BookingCode,
		&b.ClientID,
		&b.ContainerCount,
		&from,
		&to,
		&b.Status,
		&b.CreatedBy,
		&b.UpdatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Key: fmt.Sprint(id), Err: err}
	}
	if err != nil {
		return models.Booking{}, err
	}
	b.FromLocationID = idPtr(from)
	b.ToLocationID = idPtr(to)
	return b, nil
}

// UpdateHeader overwrites the mutable header fields of booking b.ID.
func (r BookingRepository) UpdateHeader(ctx context.Context, q intdb.Querier, b models.Booking) error {
	_, err := pick(q, r.DB).ExecContext(ctx, `
		UPDATE bookings
		SET booking_id = ?, client_id = ?, container_count = ?, from_location_id = ?, to_location_id = ?,
		    status = ?, updated_by = ?, updated_at = NOW()
		WHERE id = ?
	`,
		b.BookingCode,
		b.ClientID,
		b.ContainerCount,
		intdb.NullID(b.FromLocationID),
		intdb.NullID(b.ToLocationID),
		b.Status,
		b.UpdatedBy,
		b.ID,
	)
	if err != nil && isDuplicateKey(err) {
		return duplicateReference(b.BookingCode, err)
	}
	return err
}

// UpdateStatus sets status and updated_by. It returns NotFoundError when no row matched.
func (r BookingRepository) UpdateStatus(ctx context.Context, q intdb.Querier, id int64, status string, actor int64) error {
	res, err := pick(q, r.DB).ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_by = ?, updated_at = NOW() WHERE id = ?`,
		status, actor, id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "booking", Key: fmt.Sprint(id)}
	}
	return nil
}

// Delete removes the booking header row.
func (r BookingRepository) Delete(ctx context.Context, q intdb.Querier, id int64) error {
	_, err := pick(q, r.DB).ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return err
}

// FindView loads one booking joined with client and location names. by is "id" or "code".
func (r BookingRepository) FindView(ctx context.Context, q intdb.Querier, by string, key any, caps intdb.Capabilities) (models.BookingView, error) {
	where := "b.id = ?"
	if by == "code" {
		where = "b.booking_id = ?"
	}
	legacy := "'', ''"
	if caps.HasLegacyColumns {
		legacy = "COALESCE(b.container_type, ''), COALESCE(b.container_number, '')"
	}

	query := fmt.Sprintf(`
		SELECT
			b.id, b.booking_id, b.client_id, COALESCE(c.name, ''), COALESCE(c.code, ''),
			b.container_count,
			b.from_location_id, COALESCE(lf.name, ''),
			b.to_location_id, COALESCE(lt.name, ''),
			COALESCE(b.status, ''), COALESCE(b.created_by, 0), COALESCE(b.updated_by, 0),
			b.created_at, b.updated_at,
			%s
		FROM bookings b
		LEFT JOIN clients c ON c.id = b.client_id
		LEFT JOIN locations lf ON lf.id = b.from_location_id
		LEFT JOIN locations lt ON lt.id = b.to_location_id
		WHERE %s
		LIMIT 1
	`, legacy, where)

	var (
		v        models.BookingView
		from, to sql.NullInt64
	)
	err := pick(q, r.DB).QueryRowContext(ctx, query, key).Scan(
		&v.ID,
		&v.BookingCode,
		&v.ClientID,
		&v.ClientName,
		&v.ClientCode,
		&v.ContainerCount,
		&from,
		&v.FromLocationName,
		&to,
		&v.ToLocationName,
		&v.Status,
		&v.CreatedBy,
		&v.UpdatedBy,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.LegacyContainerType,
		&v.LegacyContainerNumber,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BookingView{}, domain.NotFoundError{Resource: "booking", Key: fmt.Sprint(key), Err: err}
	}
	if err != nil {
		return models.BookingView{}, err
	}
	v.FromLocationID = idPtr(from)
	v.ToLocationID = idPtr(to)
	return v, nil
}

// List pages bookings newest first and returns the total matching count.
func (r BookingRepository) List(ctx context.Context, q intdb.Querier, f models.BookingFilter, p domain.Pagination) ([]models.BookingSummary, int, error) {
	db := pick(q, r.DB)

	where := []string{"1=1"}
	args := []any{}
	if st := strings.TrimSpace(f.Status); st != "" {
		where = append(where, "b.status = ?")
		args = append(args, st)
	}
	if f.ClientID > 0 {
		where = append(where, "b.client_id = ?")
		args = append(args, f.ClientID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT b.id, b.booking_id, COALESCE(c.name, ''), b.container_count, COALESCE(b.status, ''), b.created_at
		FROM bookings b
		LEFT JOIN clients c ON c.id = b.client_id
		WHERE `+cond+`
		ORDER BY b.id DESC
		LIMIT ? OFFSET ?
	`, append(args, p.PageSize, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.BookingSummary{}
	for rows.Next() {
		var s models.BookingSummary
		if err := rows.Scan(&s.ID, &s.BookingCode, &s.ClientName, &s.ContainerCount, &s.Status, &s.CreatedAt); err != nil {
			return out, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func duplicateReference(code string, err error) error {
	return domain.ConflictError{
		Resource: "booking",
		Key:      code,
		Msg:      fmt.Sprintf("booking_id %s sudah digunakan", code),
		Err:      err,
	}
}
