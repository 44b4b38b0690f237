package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	intdb "cargobooking/internal/db"
	"cargobooking/internal/domain"
	"cargobooking/internal/domain/models"
	"cargobooking/internal/events"
	"cargobooking/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	qClient     = regexp.QuoteMeta("SELECT COUNT(*) FROM clients WHERE id = ?")
	qLocations  = regexp.QuoteMeta("SELECT COUNT(*) FROM locations WHERE id IN (")
	qExists     = regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE booking_id = ? AND id <> ?")
	qMaxRef     = "WHERE booking_id LIKE"
	qHeader     = regexp.QuoteMeta("SELECT id, booking_id, client_id, container_count")
	qSnapshot   = regexp.QuoteMeta("SELECT sequence, COALESCE(created_by, 0) FROM booking_containers")
	eInsertBkg  = "INSERT INTO bookings"
	eInsertCtr  = "INSERT INTO booking_containers"
	eUpdateHdr  = "UPDATE bookings\\s+SET booking_id"
	eStatus     = regexp.QuoteMeta("UPDATE bookings SET status = ?")
	eDeleteCtrs = regexp.QuoteMeta("DELETE FROM booking_containers WHERE booking_id = ?")
	eDeleteBkg  = regexp.QuoteMeta("DELETE FROM bookings WHERE id = ?")
)

var staff = domain.ActorContext{UserID: 9, Role: "staff"}

type recordingPublisher struct {
	events []events.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.BookingEvent) error {
	p.events = append(p.events, ev)
	return nil
}

type recordingReceipts struct {
	removed []string
	err     error
}

func (r *recordingReceipts) Remove(code string) error {
	r.removed = append(r.removed, code)
	return r.err
}

func newBookingService(t *testing.T, caps intdb.Capabilities) (BookingService, sqlmock.Sqlmock, *recordingPublisher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pub := &recordingPublisher{}
	svc := BookingService{
		DB:         db,
		Caps:       intdb.NewCapabilityStore(caps),
		Bookings:   repositories.BookingRepository{DB: db},
		Containers: repositories.ContainerRepository{DB: db},
		Lookups:    repositories.LookupRepository{DB: db},
		Events:     pub,
		RequestID:  "test",
		Now:        func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
	return svc, mock, pub
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(n)
}

func headerRows(id int64, code, status string, createdBy int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "client_id", "container_count", "from_location_id", "to_location_id",
		"status", "created_by", "updated_by",
	}).AddRow(id, code, 3, 2, nil, nil, status, createdBy, createdBy)
}

func TestCreateBookingWritesHeaderAndContainersInOneTransaction(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true, HasPerContainerLocations: true}
	svc, mock, pub := newBookingService(t, caps)

	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qLocations).WithArgs(10, 20, 30).WillReturnRows(countRows(3))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-010", 0).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectQuery(qExists).WithArgs("AB-2025-010", 0).WillReturnRows(countRows(0))
	mock.ExpectExec(eInsertBkg).
		WithArgs("AB-2025-010", 3, 2, 10, 20, "pending", 9, 9).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(eInsertCtr).
		WithArgs(
			7, 1, "20ft", "A", "B", 10, 20, 9, 9,
			7, 2, "40ft", "C", nil, 30, 20, 9, 9,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	b, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode:    " AB-2025-010 ",
		ClientID:       3,
		ContainerCount: 2,
		FromLocationID: id(10),
		ToLocationID:   id(20),
		Containers: []models.ContainerInput{
			{Type: "20ft", Numbers: []string{"A", "B"}},
			{Type: "40ft", Numbers: []string{"C"}, FromLocationID: id(30)},
		},
	}, staff)

	require.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, "AB-2025-010", b.BookingCode)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.BookingCreated, pub.events[0].Type)
	assert.Equal(t, 2, pub.events[0].ContainerRows)
	assert.Equal(t, int64(9), pub.events[0].ActorID)
}

func TestCreateBookingRejectsEmptyCodeWithoutTransaction(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{HasContainerTable: true})

	_, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode:    "   ",
		ClientID:       3,
		ContainerCount: 1,
	}, staff)

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingValidatesInput(t *testing.T) {
	cases := []struct {
		name  string
		in    models.BookingInput
		actor domain.ActorContext
	}{
		{"no client", models.BookingInput{BookingCode: "X", ContainerCount: 1}, staff},
		{"zero count", models.BookingInput{BookingCode: "X", ClientID: 1}, staff},
		{"count too high", models.BookingInput{BookingCode: "X", ClientID: 1, ContainerCount: 201}, staff},
		{"bad status", models.BookingInput{BookingCode: "X", ClientID: 1, ContainerCount: 1, Status: "shipped"}, staff},
		{"anonymous actor", models.BookingInput{BookingCode: "X", ClientID: 1, ContainerCount: 1}, domain.ActorContext{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock, _ := newBookingService(t, intdb.Capabilities{})
			_, err := svc.Create(context.Background(), tc.in, tc.actor)
			assert.True(t, domain.IsValidation(err), "got %v", err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateBookingUnknownClient(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})
	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(0))

	_, err := svc.Create(context.Background(), models.BookingInput{BookingCode: "X", ClientID: 3, ContainerCount: 1}, staff)

	assert.True(t, domain.IsValidation(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUnknownLocation(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})
	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qLocations).WithArgs(10, 20).WillReturnRows(countRows(1))

	_, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode: "X", ClientID: 3, ContainerCount: 1, FromLocationID: id(10), ToLocationID: id(20),
	}, staff)

	assert.True(t, domain.IsValidation(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingDuplicateCodeWritesNothing(t *testing.T) {
	svc, mock, pub := newBookingService(t, intdb.Capabilities{HasContainerTable: true})

	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-001", 0).WillReturnRows(countRows(1))

	_, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode:    "AB-2025-001",
		AutoReference:  true,
		ClientID:       3,
		ContainerCount: 1,
		Containers:     []models.ContainerInput{{Type: "20ft", Numbers: []string{"A"}}},
	}, staff)

	require.Error(t, err)
	assert.True(t, domain.IsConflict(err), "got %v", err)
	assert.Empty(t, pub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingDuplicateKeyInsideTransactionRollsBack(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{HasContainerTable: true})

	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-001", 0).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectQuery(qExists).WithArgs("AB-2025-001", 0).WillReturnRows(countRows(0))
	mock.ExpectExec(eInsertBkg).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'AB-2025-001'"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode:    "AB-2025-001",
		ClientID:       3,
		ContainerCount: 1,
		Containers:     []models.ContainerInput{{Type: "20ft", Numbers: []string{"A"}}},
	}, staff)

	assert.True(t, domain.IsConflict(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingContainerFailureRollsBackHeader(t *testing.T) {
	svc, mock, pub := newBookingService(t, intdb.Capabilities{HasContainerTable: true})

	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-002", 0).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectQuery(qExists).WithArgs("AB-2025-002", 0).WillReturnRows(countRows(0))
	mock.ExpectExec(eInsertBkg).WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(eInsertCtr).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode:    "AB-2025-002",
		ClientID:       3,
		ContainerCount: 1,
		Containers:     []models.ContainerInput{{Type: "40ft", Numbers: []string{"A"}}},
	}, staff)

	require.Error(t, err)
	assert.True(t, domain.IsInternal(err), "got %v", err)
	assert.Empty(t, pub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRejectsMoreContainersThanDeclared(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{HasContainerTable: true})
	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))

	_, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode:    "AB-2025-003",
		ClientID:       3,
		ContainerCount: 1,
		Containers: []models.ContainerInput{
			{Type: "40ft", Numbers: []string{"A"}},
			{Type: "40ft", Numbers: []string{"B"}},
		},
	}, staff)

	assert.True(t, domain.IsValidation(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingWithoutContainerTableWritesLegacyHeaderOnly(t *testing.T) {
	svc, mock, pub := newBookingService(t, intdb.Capabilities{HasLegacyColumns: true})

	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-004", 0).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectQuery(qExists).WithArgs("AB-2025-004", 0).WillReturnRows(countRows(0))
	mock.ExpectExec(eInsertBkg).
		WithArgs("AB-2025-004", 3, 1, nil, nil, "confirmed", 9, 9, "", "").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	b, err := svc.Create(context.Background(), models.BookingInput{
		BookingCode:    "AB-2025-004",
		ClientID:       3,
		ContainerCount: 1,
		Status:         "Confirmed",
		Containers:     []models.ContainerInput{{Type: "20ft", Numbers: []string{"A", "B"}}},
	}, staff)

	require.NoError(t, err)
	assert.Equal(t, "confirmed", b.Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, 0, pub.events[0].ContainerRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingAutoReferenceRetriesOnConflict(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})

	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qMaxRef).WithArgs("AB-2025-%").
		WillReturnRows(sqlmock.NewRows([]string{"booking_id"}).AddRow("AB-2025-004"))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-005", 0).WillReturnRows(countRows(1))
	mock.ExpectQuery(qMaxRef).WithArgs("AB-2025-%").
		WillReturnRows(sqlmock.NewRows([]string{"booking_id"}).AddRow("AB-2025-005"))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-006", 0).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectQuery(qExists).WithArgs("AB-2025-006", 0).WillReturnRows(countRows(0))
	mock.ExpectExec(eInsertBkg).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	b, err := svc.Create(context.Background(), models.BookingInput{
		AutoReference:  true,
		ClientID:       3,
		ContainerCount: 1,
	}, staff)

	require.NoError(t, err)
	assert.Equal(t, "AB-2025-006", b.BookingCode)
	assert.Equal(t, int64(11), b.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingAutoReferenceGivesUp(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})

	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	for i := 0; i < maxReferenceAttempts; i++ {
		mock.ExpectQuery(qMaxRef).WithArgs("AB-2025-%").
			WillReturnRows(sqlmock.NewRows([]string{"booking_id"}).AddRow("AB-2025-001"))
		mock.ExpectQuery(qExists).WithArgs("AB-2025-002", 0).WillReturnRows(countRows(1))
	}

	_, err := svc.Create(context.Background(), models.BookingInput{
		AutoReference:  true,
		ClientID:       3,
		ContainerCount: 1,
	}, staff)

	assert.True(t, domain.IsConflict(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingReplacesContainersAndKeepsCreator(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true, ContainerTypeNullable: true}
	svc, mock, pub := newBookingService(t, caps)

	mock.ExpectQuery(qHeader).WithArgs(7).WillReturnRows(headerRows(7, "AB-2025-010", "confirmed", 5))
	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-010", 7).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectQuery(qExists).WithArgs("AB-2025-010", 7).WillReturnRows(countRows(0))
	mock.ExpectQuery(qSnapshot).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "created_by"}).AddRow(1, 5).AddRow(2, 5))
	mock.ExpectExec(eUpdateHdr).
		WithArgs("AB-2025-010", 3, 3, nil, nil, "confirmed", 9, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(eDeleteCtrs).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(eInsertCtr).
		WithArgs(
			7, 1, "20ft", "A", "B", 5, 9,
			7, 2, "40ft", "C", nil, 5, 9,
			7, 3, "40ft", "D", nil, 9, 9,
		).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	b, err := svc.Update(context.Background(), 7, models.BookingInput{
		BookingCode:    "AB-2025-010",
		ClientID:       3,
		ContainerCount: 3,
		Containers: []models.ContainerInput{
			{Type: "20ft", Numbers: []string{"A", "B"}},
			{Type: "40ft", Numbers: []string{"C"}},
			{Type: "40ft", Numbers: []string{"D"}},
		},
	}, staff)

	require.NoError(t, err)
	assert.Equal(t, "confirmed", b.Status)
	assert.Equal(t, int64(5), b.CreatedBy)
	assert.Equal(t, int64(9), b.UpdatedBy)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.BookingUpdated, pub.events[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingMissing(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})
	mock.ExpectQuery(qHeader).WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Update(context.Background(), 99, models.BookingInput{BookingCode: "X", ClientID: 3, ContainerCount: 1}, staff)

	assert.True(t, domain.IsNotFound(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingCodeTakenByAnotherBooking(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})
	mock.ExpectQuery(qHeader).WithArgs(7).WillReturnRows(headerRows(7, "AB-2025-010", "pending", 5))
	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-011", 7).WillReturnRows(countRows(1))

	_, err := svc.Update(context.Background(), 7, models.BookingInput{BookingCode: "AB-2025-011", ClientID: 3, ContainerCount: 1}, staff)

	assert.True(t, domain.IsConflict(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteConfirmedBookingNeedsElevatedRole(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{HasContainerTable: true})
	mock.ExpectQuery(qHeader).WithArgs(7).WillReturnRows(headerRows(7, "AB-2025-010", "confirmed", 5))

	err := svc.Delete(context.Background(), 7, staff)

	assert.True(t, domain.IsForbidden(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBookingRemovesContainersAndReceipt(t *testing.T) {
	svc, mock, pub := newBookingService(t, intdb.Capabilities{HasContainerTable: true})
	receipts := &recordingReceipts{err: errors.New("permission denied")}
	svc.Receipts = receipts

	mock.ExpectQuery(qHeader).WithArgs(7).WillReturnRows(headerRows(7, "AB-2025-010", "confirmed", 5))
	mock.ExpectBegin()
	mock.ExpectExec(eDeleteCtrs).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(eDeleteBkg).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), 7, domain.ActorContext{UserID: 1, Role: "Admin"})

	require.NoError(t, err, "receipt removal failures are only logged")
	assert.Equal(t, []string{"AB-2025-010"}, receipts.removed)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.BookingDeleted, pub.events[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePendingBookingWithoutContainerTable(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})

	mock.ExpectQuery(qHeader).WithArgs(7).WillReturnRows(headerRows(7, "AB-2025-010", "pending", 5))
	mock.ExpectBegin()
	mock.ExpectExec(eDeleteBkg).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), 7, staff))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	svc, mock, pub := newBookingService(t, intdb.Capabilities{})

	mock.ExpectQuery(qHeader).WithArgs(7).WillReturnRows(headerRows(7, "AB-2025-010", "pending", 5))
	mock.ExpectExec(eStatus).WithArgs("in_progress", 9, 7).WillReturnResult(sqlmock.NewResult(0, 1))

	b, err := svc.UpdateStatus(context.Background(), 7, " IN_PROGRESS ", staff)

	require.NoError(t, err)
	assert.Equal(t, "in_progress", b.Status)
	require.Len(t, pub.events, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, mock, _ := newBookingService(t, intdb.Capabilities{})

	_, err := svc.UpdateStatus(context.Background(), 7, "shipped", staff)

	assert.True(t, domain.IsValidation(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextReferenceRejectsBadYear(t *testing.T) {
	svc, _, _ := newBookingService(t, intdb.Capabilities{})
	_, err := svc.NextReference(context.Background(), 12)
	assert.True(t, domain.IsValidation(err), "got %v", err)
}

func TestUpdateBookingSameForAllOverwritesContainerLocations(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true, HasPerContainerLocations: true}
	svc, mock, _ := newBookingService(t, caps)

	mock.ExpectQuery(qHeader).WithArgs(7).WillReturnRows(headerRows(7, "AB-2025-010", "pending", 5))
	mock.ExpectQuery(qClient).WithArgs(3).WillReturnRows(countRows(1))
	// the per-container override is not looked up when sameForAll wins
	mock.ExpectQuery(qLocations).WithArgs(10, 20).WillReturnRows(countRows(2))
	mock.ExpectQuery(qExists).WithArgs("AB-2025-010", 7).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectQuery(qExists).WithArgs("AB-2025-010", 7).WillReturnRows(countRows(0))
	mock.ExpectQuery(qSnapshot).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "created_by"}).AddRow(1, 5))
	mock.ExpectExec(eUpdateHdr).
		WithArgs("AB-2025-010", 3, 2, 10, 20, "pending", 9, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(eDeleteCtrs).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(eInsertCtr).
		WithArgs(
			7, 1, "20ft", "A", "B", 10, 20, 5, 9,
			7, 2, "40ft", "C", nil, 10, 20, 9, 9,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	_, err := svc.Update(context.Background(), 7, models.BookingInput{
		BookingCode:    "AB-2025-010",
		ClientID:       3,
		ContainerCount: 2,
		FromLocationID: id(10),
		ToLocationID:   id(20),
		SameForAll:     true,
		Containers: []models.ContainerInput{
			{Type: "20ft", Numbers: []string{"A", "B"}},
			{Type: "40ft", Numbers: []string{"C"}, FromLocationID: id(30), ToLocationID: id(40)},
		},
	}, staff)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshCapabilitiesKeepsPreviousOnLookupFailure(t *testing.T) {
	before := intdb.Capabilities{HasContainerTable: true, HasPerContainerLocations: true}
	svc, mock, _ := newBookingService(t, before)

	mock.ExpectQuery("information_schema\\.tables").WithArgs("booking_containers").
		WillReturnError(errors.New("lock wait timeout"))

	caps, err := svc.RefreshCapabilities(context.Background())

	assert.True(t, domain.IsInternal(err), "got %v", err)
	assert.Equal(t, before, caps)
	assert.Equal(t, before, svc.Capabilities())
	require.NoError(t, mock.ExpectationsWereMet())
}
