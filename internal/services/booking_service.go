package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"cargobooking/internal/cache"
	intconfig "cargobooking/internal/config"
	intdb "cargobooking/internal/db"
	"cargobooking/internal/domain"
	"cargobooking/internal/domain/models"
	"cargobooking/internal/events"
	"cargobooking/internal/repositories"
	"cargobooking/internal/storage"
	"cargobooking/internal/utils"
)

const (
	maxContainerCount    = 200
	maxReferenceAttempts = 3
)

var defaultElevatedRoles = []string{"admin", "superadmin"}

// BookingService creates, edits and deletes bookings. Each mutation runs in a
// single transaction spanning the header and its container rows.
type BookingService struct {
	DB            *sql.DB
	Caps          *intdb.CapabilityStore
	Bookings      repositories.BookingRepository
	Containers    repositories.ContainerRepository
	Lookups       repositories.LookupRepository
	Cache         *cache.BookingCache
	Events        events.Publisher
	Receipts      storage.ReceiptStore
	ElevatedRoles []string
	RequestID     string
	Now           func() time.Time
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) bookings() repositories.BookingRepository {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepository{DB: s.db()}
}

func (s BookingService) containers() repositories.ContainerRepository {
	if s.Containers.DB != nil {
		return s.Containers
	}
	return repositories.ContainerRepository{DB: s.db()}
}

func (s BookingService) lookups() repositories.LookupRepository {
	if s.Lookups.DB != nil {
		return s.Lookups
	}
	return repositories.LookupRepository{DB: s.db()}
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) elevatedRoles() []string {
	if len(s.ElevatedRoles) > 0 {
		return s.ElevatedRoles
	}
	return defaultElevatedRoles
}

// Capabilities returns the schema capabilities in effect for the next operation.
func (s BookingService) Capabilities() intdb.Capabilities {
	return s.Caps.Load()
}

// RefreshCapabilities re-reads the live schema. A failed lookup keeps the
// capabilities already in effect.
func (s BookingService) RefreshCapabilities(ctx context.Context) (intdb.Capabilities, error) {
	if s.Caps == nil {
		return intdb.Capabilities{}, domain.InternalError{Msg: "capability store tidak tersedia"}
	}
	db := s.db()
	if db == nil {
		return intdb.Capabilities{}, domain.InternalError{Msg: "database belum terhubung"}
	}
	caps, err := s.Caps.Refresh(ctx, db)
	if err != nil {
		utils.LogWarn(s.RequestID, "schema", "refresh", "cek schema gagal, capabilities lama dipakai: "+err.Error())
		return caps, domain.InternalError{Msg: "gagal membaca struktur database", Err: err}
	}
	utils.LogEvent(s.RequestID, "schema", "refresh", "capabilities="+caps.String())
	return caps, nil
}

// NextReference suggests the next booking code for year without reserving it.
func (s BookingService) NextReference(ctx context.Context, year int) (string, error) {
	if year < 1970 || year > 9999 {
		return "", domain.ValidationError{Field: "year", Msg: "tahun tidak valid"}
	}
	code, err := ReferenceGenerator{Bookings: s.bookings()}.Next(ctx, nil, year)
	if err != nil {
		return "", domain.InternalError{Msg: "gagal membuat booking_id", Err: err}
	}
	return code, nil
}

// Create persists a new booking and its containers atomically. With
// AutoReference and no code, a reference is generated and regenerated on a
// duplicate-reference conflict, at most maxReferenceAttempts times. An explicit
// code that is already taken fails immediately.
func (s BookingService) Create(ctx context.Context, in models.BookingInput, actor domain.ActorContext) (models.Booking, error) {
	in = normalizeInput(in)
	caps := s.Capabilities()

	auto := in.AutoReference && in.BookingCode == ""
	if err := validateInput(in, !auto, actor); err != nil {
		return models.Booking{}, err
	}
	if err := s.checkReferences(ctx, in, caps); err != nil {
		return models.Booking{}, err
	}
	rows, err := allocateFor(in, caps, int64(actor.UserID))
	if err != nil {
		return models.Booking{}, err
	}

	if !auto {
		return s.createOnce(ctx, in, rows, caps, actor)
	}

	var lastErr error
	year := s.now().Year()
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		code, err := s.NextReference(ctx, year)
		if err != nil {
			return models.Booking{}, err
		}
		in.BookingCode = code
		b, err := s.createOnce(ctx, in, rows, caps, actor)
		if err == nil || !domain.IsConflict(err) {
			return b, err
		}
		lastErr = err
		utils.LogWarn(s.RequestID, "booking", "create", fmt.Sprintf("reference %s bentrok, attempt=%d", code, attempt))
	}
	return models.Booking{}, lastErr
}

func (s BookingService) createOnce(ctx context.Context, in models.BookingInput, rows []models.ContainerRow, caps intdb.Capabilities, actor domain.ActorContext) (models.Booking, error) {
	bookings := s.bookings()
	if err := s.ensureUniqueCode(ctx, nil, in.BookingCode, 0); err != nil {
		return models.Booking{}, err
	}

	b := models.Booking{
		BookingCode:    in.BookingCode,
		ClientID:       in.ClientID,
		ContainerCount: in.ContainerCount,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Status:         string(domain.StatusPending),
		CreatedBy:      int64(actor.UserID),
		UpdatedBy:      int64(actor.UserID),
	}
	if st, ok := domain.ParseStatus(in.Status); ok {
		b.Status = string(st)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureUniqueCode(ctx, tx, b.BookingCode, 0); err != nil {
			return err
		}
		id, err := bookings.Insert(ctx, tx, b, caps)
		if err != nil {
			return err
		}
		b.ID = id
		if caps.HasContainerTable && len(rows) > 0 {
			if err := s.containers().InsertBatch(ctx, tx, id, rows, caps); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	stored := 0
	if caps.HasContainerTable {
		stored = len(rows)
	}
	utils.LogEvent(s.RequestID, "booking", "create",
		fmt.Sprintf("id=%d booking_id=%s containers=%d actor=%d", b.ID, b.BookingCode, stored, actor.UserID))
	s.afterCommit(ctx, events.BookingCreated, b, stored, actor, b.BookingCode)
	return b, nil
}

// Update replaces the header fields and all container rows of booking id.
// Container rows are deleted and re-inserted; created_by is carried over per
// sequence from the rows that existed before the edit.
func (s BookingService) Update(ctx context.Context, id int64, in models.BookingInput, actor domain.ActorContext) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "id tidak valid"}
	}
	in = normalizeInput(in)
	caps := s.Capabilities()

	if err := validateInput(in, true, actor); err != nil {
		return models.Booking{}, err
	}
	existing, err := s.bookings().GetHeader(ctx, nil, id)
	if err != nil {
		return models.Booking{}, persistErr(err)
	}
	if err := s.checkReferences(ctx, in, caps); err != nil {
		return models.Booking{}, err
	}
	rows, err := allocateFor(in, caps, int64(actor.UserID))
	if err != nil {
		return models.Booking{}, err
	}
	if err := s.ensureUniqueCode(ctx, nil, in.BookingCode, id); err != nil {
		return models.Booking{}, err
	}

	b := existing
	b.BookingCode = in.BookingCode
	b.ClientID = in.ClientID
	b.ContainerCount = in.ContainerCount
	b.FromLocationID = in.FromLocationID
	b.ToLocationID = in.ToLocationID
	b.UpdatedBy = int64(actor.UserID)
	if st, ok := domain.ParseStatus(in.Status); ok {
		b.Status = string(st)
	}

	containers := s.containers()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureUniqueCode(ctx, tx, b.BookingCode, id); err != nil {
			return err
		}
		var snapshot map[int]int64
		if caps.HasContainerTable {
			snap, err := containers.CreatedBySnapshot(ctx, tx, id)
			if err != nil {
				return err
			}
			snapshot = snap
		}
		if err := s.bookings().UpdateHeader(ctx, tx, b); err != nil {
			return err
		}
		if !caps.HasContainerTable {
			return nil
		}
		if err := containers.DeleteByBooking(ctx, tx, id); err != nil {
			return err
		}
		applyCreatedBy(rows, snapshot)
		return containers.InsertBatch(ctx, tx, id, rows, caps)
	})
	if err != nil {
		return models.Booking{}, err
	}

	stored := 0
	if caps.HasContainerTable {
		stored = len(rows)
	}
	utils.LogEvent(s.RequestID, "booking", "update",
		fmt.Sprintf("id=%d booking_id=%s containers=%d actor=%d", b.ID, b.BookingCode, stored, actor.UserID))
	s.afterCommit(ctx, events.BookingUpdated, b, stored, actor, existing.BookingCode, b.BookingCode)
	return b, nil
}

// UpdateStatus moves booking id to status.
func (s BookingService) UpdateStatus(ctx context.Context, id int64, status string, actor domain.ActorContext) (models.Booking, error) {
	st, ok := domain.ParseStatus(status)
	if !ok {
		return models.Booking{}, domain.ValidationError{Field: "status", Msg: "status tidak valid"}
	}
	if actor.UserID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "actor", Msg: "user tidak dikenal"}
	}
	b, err := s.bookings().GetHeader(ctx, nil, id)
	if err != nil {
		return models.Booking{}, persistErr(err)
	}
	if err := s.bookings().UpdateStatus(ctx, nil, id, string(st), int64(actor.UserID)); err != nil {
		return models.Booking{}, persistErr(err)
	}
	b.Status = string(st)
	b.UpdatedBy = int64(actor.UserID)

	utils.LogEvent(s.RequestID, "booking", "status", fmt.Sprintf("id=%d status=%s actor=%d", id, st, actor.UserID))
	s.afterCommit(ctx, events.BookingUpdated, b, 0, actor, b.BookingCode)
	return b, nil
}

// Delete hard-deletes booking id and its containers, then removes the stored
// receipt. Bookings past pending/cancelled need an elevated role.
func (s BookingService) Delete(ctx context.Context, id int64, actor domain.ActorContext) error {
	if id <= 0 {
		return domain.ValidationError{Field: "id", Msg: "id tidak valid"}
	}
	caps := s.Capabilities()
	b, err := s.bookings().GetHeader(ctx, nil, id)
	if err != nil {
		return persistErr(err)
	}

	switch domain.Status(b.Status) {
	case domain.StatusConfirmed, domain.StatusInProgress, domain.StatusCompleted:
		if !actor.HasRole(s.elevatedRoles()...) {
			return domain.ForbiddenError{Action: "delete", Role: actor.Role, Msg: fmt.Sprintf("booking berstatus %s hanya bisa dihapus admin", b.Status)}
		}
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if caps.HasContainerTable {
			if err := s.containers().DeleteByBooking(ctx, tx, id); err != nil {
				return err
			}
		}
		return s.bookings().Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	if s.Receipts != nil {
		if err := s.Receipts.Remove(b.BookingCode); err != nil {
			utils.LogWarn(s.RequestID, "booking", "delete", "hapus receipt gagal: "+err.Error())
		}
	}
	utils.LogEvent(s.RequestID, "booking", "delete", fmt.Sprintf("id=%d booking_id=%s actor=%d", id, b.BookingCode, actor.UserID))
	s.afterCommit(ctx, events.BookingDeleted, b, 0, actor, b.BookingCode)
	return nil
}

// withTx runs fn in one transaction; the transaction is committed when fn
// succeeds and rolled back on every other exit path.
func (s BookingService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db := s.db()
	if db == nil {
		return domain.InternalError{Msg: "database belum terhubung"}
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Msg: "gagal membuka transaction", Err: err}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		utils.LogWarn(s.RequestID, "booking", "tx", "rollback: "+err.Error())
		return persistErr(err)
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Msg: "gagal menyimpan booking", Err: err}
	}
	return nil
}

func (s BookingService) ensureUniqueCode(ctx context.Context, q intdb.Querier, code string, excludeID int64) error {
	exists, err := s.bookings().ExistsByCode(ctx, q, code, excludeID)
	if err != nil {
		return domain.InternalError{Msg: "gagal cek booking_id", Err: err}
	}
	if exists {
		return domain.ConflictError{Resource: "booking", Key: code, Msg: fmt.Sprintf("booking_id %s sudah digunakan", code)}
	}
	return nil
}

// checkReferences verifies the client and every referenced location exist.
func (s BookingService) checkReferences(ctx context.Context, in models.BookingInput, caps intdb.Capabilities) error {
	lookups := s.lookups()
	ok, err := lookups.ClientExists(ctx, nil, in.ClientID)
	if err != nil {
		return domain.InternalError{Msg: "gagal cek client", Err: err}
	}
	if !ok {
		return domain.ValidationError{Field: "client_id", Msg: "client tidak ditemukan"}
	}

	ids := locationIDs(in, caps)
	if len(ids) == 0 {
		return nil
	}
	n, err := lookups.CountLocations(ctx, nil, ids)
	if err != nil {
		return domain.InternalError{Msg: "gagal cek lokasi", Err: err}
	}
	if n != len(ids) {
		return domain.ValidationError{Field: "location", Msg: "lokasi tidak ditemukan"}
	}
	return nil
}

func (s BookingService) afterCommit(ctx context.Context, kind string, b models.Booking, rows int, actor domain.ActorContext, codes ...string) {
	if err := s.Cache.Invalidate(ctx, b.ID, codes...); err != nil {
		utils.LogWarn(s.RequestID, "booking", "cache", "invalidate gagal: "+err.Error())
	}
	if s.Events == nil {
		return
	}
	ev := events.BookingEvent{
		Type:           kind,
		BookingID:      b.ID,
		BookingCode:    b.BookingCode,
		ClientID:       b.ClientID,
		ContainerCount: b.ContainerCount,
		ContainerRows:  rows,
		ActorID:        int64(actor.UserID),
		OccurredAt:     s.now().UTC(),
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		utils.LogWarn(s.RequestID, "booking", "publish", kind+" gagal: "+err.Error())
	}
}

func normalizeInput(in models.BookingInput) models.BookingInput {
	in.BookingCode = strings.TrimSpace(in.BookingCode)
	in.Status = strings.TrimSpace(in.Status)
	return in
}

func validateInput(in models.BookingInput, codeRequired bool, actor domain.ActorContext) error {
	if codeRequired && in.BookingCode == "" {
		return domain.ValidationError{Field: "booking_id", Msg: "booking_id wajib diisi"}
	}
	if len(in.BookingCode) > 50 {
		return domain.ValidationError{Field: "booking_id", Msg: "booking_id terlalu panjang"}
	}
	if actor.UserID <= 0 {
		return domain.ValidationError{Field: "actor", Msg: "user tidak dikenal"}
	}
	if in.ClientID <= 0 {
		return domain.ValidationError{Field: "client_id", Msg: "client wajib dipilih"}
	}
	if in.ContainerCount < 1 || in.ContainerCount > maxContainerCount {
		return domain.ValidationError{Field: "container_count", Msg: fmt.Sprintf("jumlah container harus 1-%d", maxContainerCount)}
	}
	if in.Status != "" {
		if _, ok := domain.ParseStatus(in.Status); !ok {
			return domain.ValidationError{Field: "status", Msg: "status tidak valid"}
		}
	}
	return nil
}

// allocateFor runs the slot allocator when the schema has a container table and
// at least one container position was submitted.
func allocateFor(in models.BookingInput, caps intdb.Capabilities, actor int64) ([]models.ContainerRow, error) {
	if !caps.HasContainerTable || len(in.Containers) == 0 {
		return nil, nil
	}
	loc := LocationDefaults{From: in.FromLocationID, To: in.ToLocationID, SameForAll: in.SameForAll}
	rows := AllocateContainers(in.Containers, in.ContainerCount, loc, caps, actor)
	for _, r := range rows {
		if r.Sequence > in.ContainerCount {
			return nil, domain.ValidationError{Field: "containers", Msg: "data container melebihi container_count"}
		}
	}
	return rows, nil
}

func locationIDs(in models.BookingInput, caps intdb.Capabilities) []int64 {
	seen := map[int64]bool{}
	add := func(id *int64) {
		if id != nil && *id > 0 {
			seen[*id] = true
		}
	}
	add(in.FromLocationID)
	add(in.ToLocationID)
	if caps.HasPerContainerLocations && !in.SameForAll {
		for _, c := range in.Containers {
			add(c.FromLocationID)
			add(c.ToLocationID)
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// persistErr keeps domain errors and hides everything else behind a generic failure.
func persistErr(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsConflict(err) ||
		domain.IsForbidden(err) || domain.IsInternal(err) {
		return err
	}
	return domain.InternalError{Msg: "gagal menyimpan booking", Err: err}
}
