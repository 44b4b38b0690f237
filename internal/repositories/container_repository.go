package repositories

import (
	"context"
	"database/sql"
	"strings"

	intdb "cargobooking/internal/db"
	"cargobooking/internal/domain/models"
)

// ContainerRepository reads and writes booking_containers. Callers must check
// Capabilities.HasContainerTable before using it.
type ContainerRepository struct {
	DB *sql.DB
}

// CreatedBySnapshot maps sequence -> created_by for the booking's current rows.
func (r ContainerRepository) CreatedBySnapshot(ctx context.Context, q intdb.Querier, bookingID int64) (map[int]int64, error) {
	rows, err := pick(q, r.DB).QueryContext(ctx,
		`SELECT sequence, COALESCE(created_by, 0) FROM booking_containers WHERE booking_id = ?`,
		bookingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]int64{}
	for rows.Next() {
		var (
			seq       int
			createdBy int64
		)
		if err := rows.Scan(&seq, &createdBy); err != nil {
			return nil, err
		}
		out[seq] = createdBy
	}
	return out, rows.Err()
}

// DeleteByBooking removes every container row of the booking.
func (r ContainerRepository) DeleteByBooking(ctx context.Context, q intdb.Querier, bookingID int64) error {
	_, err := pick(q, r.DB).ExecContext(ctx, `DELETE FROM booking_containers WHERE booking_id = ?`, bookingID)
	return err
}

// InsertBatch writes all rows in a single multi-VALUES statement. Per-container
// location columns are only written when the schema has them.
func (r ContainerRepository) InsertBatch(ctx context.Context, q intdb.Querier, bookingID int64, rows []models.ContainerRow, caps intdb.Capabilities) error {
	if len(rows) == 0 {
		return nil
	}

	cols := []string{"booking_id", "sequence", "type", "number_1", "number_2"}
	if caps.HasPerContainerLocations {
		cols = append(cols, "from_location_id", "to_location_id")
	}
	cols = append(cols, "created_by", "updated_by")

	ph := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	tuple := "(" + ph + ", NOW(), NOW())"

	var sb strings.Builder
	sb.WriteString(`INSERT INTO booking_containers (` + strings.Join(cols, ", ") + `, created_at, updated_at) VALUES `)
	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, bookingID, row.Sequence, intdb.NullString(row.Type), intdb.NullString(row.Number1), intdb.NullString(row.Number2))
		if caps.HasPerContainerLocations {
			args = append(args, intdb.NullID(row.FromLocationID), intdb.NullID(row.ToLocationID))
		}
		args = append(args, row.CreatedBy, row.UpdatedBy)
	}

	_, err := pick(q, r.DB).ExecContext(ctx, sb.String(), args...)
	return err
}

// ListViews returns the booking's containers ordered by sequence.
func (r ContainerRepository) ListViews(ctx context.Context, q intdb.Querier, bookingID int64, caps intdb.Capabilities) ([]models.ContainerView, error) {
	locCols := "NULL, '', NULL, ''"
	joins := ""
	if caps.HasPerContainerLocations {
		locCols = "bc.from_location_id, COALESCE(lf.name, ''), bc.to_location_id, COALESCE(lt.name, '')"
		joins = `
		LEFT JOIN locations lf ON lf.id = bc.from_location_id
		LEFT JOIN locations lt ON lt.id = bc.to_location_id`
	}

	query := `
		SELECT bc.sequence, bc.type, bc.number_1, bc.number_2, ` + locCols + `,
		       COALESCE(bc.created_by, 0), COALESCE(bc.updated_by, 0)
		FROM booking_containers bc` + joins + `
		WHERE bc.booking_id = ?
		ORDER BY bc.sequence ASC`

	rows, err := pick(q, r.DB).QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ContainerView{}
	for rows.Next() {
		var (
			v              models.ContainerView
			typ, n1, n2    sql.NullString
			from, to       sql.NullInt64
			fromNm, toName sql.NullString
		)
		if err := rows.Scan(&v.Sequence, &typ, &n1, &n2, &from, &fromNm, &to, &toName, &v.CreatedBy, &v.UpdatedBy); err != nil {
			return out, err
		}
		v.Type = strPtr(typ)
		v.Number1 = strPtr(n1)
		v.Number2 = strPtr(n2)
		v.FromLocationID = idPtr(from)
		v.ToLocationID = idPtr(to)
		v.FromLocationName = fromNm.String
		v.ToLocationName = toName.String
		out = append(out, v)
	}
	return out, rows.Err()
}
