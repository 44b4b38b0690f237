package services

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"cargobooking/internal/cache"
	intconfig "cargobooking/internal/config"
	intdb "cargobooking/internal/db"
	"cargobooking/internal/domain"
	"cargobooking/internal/domain/models"
	"cargobooking/internal/repositories"
	"cargobooking/internal/utils"
)

// QueryService serves the read side: a booking with its containers, the
// container list alone, and the paged booking list.
type QueryService struct {
	DB         *sql.DB
	Caps       *intdb.CapabilityStore
	Bookings   repositories.BookingRepository
	Containers repositories.ContainerRepository
	Cache      *cache.BookingCache
	RequestID  string
}

func (s QueryService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s QueryService) bookings() repositories.BookingRepository {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepository{DB: s.db()}
}

func (s QueryService) containers() repositories.ContainerRepository {
	if s.Containers.DB != nil {
		return s.Containers
	}
	return repositories.ContainerRepository{DB: s.db()}
}

// GetBooking loads a booking by numeric id or by booking code, with its
// containers in sequence order.
func (s QueryService) GetBooking(ctx context.Context, ref string) (models.BookingView, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.BookingView{}, domain.ValidationError{Field: "booking", Msg: "booking wajib diisi"}
	}
	caps := s.Caps.Load()

	id, numErr := strconv.ParseInt(ref, 10, 64)
	isID := numErr == nil && id > 0

	if isID {
		if v, ok := s.Cache.GetByID(ctx, id); ok {
			return v, nil
		}
	} else if v, ok := s.Cache.GetByCode(ctx, ref); ok {
		return v, nil
	}

	gen := s.Cache.Generation(ctx)
	v, err := s.findView(ctx, ref, caps)
	if err != nil {
		return models.BookingView{}, err
	}

	containers, err := s.containersFor(ctx, v, caps)
	if err != nil {
		return models.BookingView{}, err
	}
	v.Containers = containers

	if _, err := s.Cache.Put(ctx, v, gen); err != nil {
		utils.LogWarn(s.RequestID, "booking", "cache", "put gagal: "+err.Error())
	}
	return v, nil
}

// GetContainers returns the containers of bookingID ordered by sequence.
func (s QueryService) GetContainers(ctx context.Context, bookingID int64) ([]models.ContainerView, error) {
	if bookingID <= 0 {
		return nil, domain.ValidationError{Field: "id", Msg: "id tidak valid"}
	}
	caps := s.Caps.Load()
	v, err := s.bookings().FindView(ctx, nil, "id", bookingID, caps)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, err
		}
		return nil, domain.InternalError{Msg: "gagal memuat booking", Err: err}
	}
	return s.containersFor(ctx, v, caps)
}

// List pages bookings newest first.
func (s QueryService) List(ctx context.Context, f models.BookingFilter, p domain.Pagination) ([]models.BookingSummary, domain.Pagination, error) {
	p = p.Normalize()
	if f.Status != "" {
		st, ok := domain.ParseStatus(f.Status)
		if !ok {
			return nil, p, domain.ValidationError{Field: "status", Msg: "status tidak valid"}
		}
		f.Status = string(st)
	}
	items, total, err := s.bookings().List(ctx, nil, f, p)
	if err != nil {
		return nil, p, domain.InternalError{Msg: "gagal memuat daftar booking", Err: err}
	}
	p.Total = total
	return items, p, nil
}

// containersFor reads container rows, falling back to a single synthesized row
// from the legacy header columns when the booking has none.
func (s QueryService) containersFor(ctx context.Context, v models.BookingView, caps intdb.Capabilities) ([]models.ContainerView, error) {
	out := []models.ContainerView{}
	if caps.HasContainerTable {
		rows, err := s.containers().ListViews(ctx, nil, v.ID, caps)
		if err != nil {
			return nil, domain.InternalError{Msg: "gagal memuat container", Err: err}
		}
		out = rows
	}
	if len(out) > 0 {
		return out, nil
	}
	if legacy, ok := legacyContainer(v, caps); ok {
		out = append(out, legacy)
	}
	return out, nil
}

func legacyContainer(v models.BookingView, caps intdb.Capabilities) (models.ContainerView, bool) {
	if !caps.HasLegacyColumns {
		return models.ContainerView{}, false
	}
	typ := nonBlank(v.LegacyContainerType)
	num := nonBlank(v.LegacyContainerNumber)
	if typ == nil && num == nil {
		return models.ContainerView{}, false
	}
	return models.ContainerView{
		Sequence:         1,
		Type:             typ,
		Number1:          num,
		FromLocationID:   v.FromLocationID,
		FromLocationName: v.FromLocationName,
		ToLocationID:     v.ToLocationID,
		ToLocationName:   v.ToLocationName,
		CreatedBy:        v.CreatedBy,
		UpdatedBy:        v.UpdatedBy,
		Legacy:           true,
	}, true
}

// ResolveID maps a numeric id or a booking code to the booking's id, using the
// same lookup order as GetBooking.
func (s QueryService) ResolveID(ctx context.Context, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, domain.ValidationError{Field: "booking", Msg: "booking wajib diisi"}
	}
	v, err := s.findView(ctx, ref, s.Caps.Load())
	if err != nil {
		return 0, err
	}
	return v.ID, nil
}

// findView looks ref up as a surrogate id first when it is numeric, then as a
// booking code.
func (s QueryService) findView(ctx context.Context, ref string, caps intdb.Capabilities) (models.BookingView, error) {
	var (
		v   models.BookingView
		err error
	)
	if id, numErr := strconv.ParseInt(ref, 10, 64); numErr == nil && id > 0 {
		v, err = s.bookings().FindView(ctx, nil, "id", id, caps)
		if domain.IsNotFound(err) {
			// numeric booking codes are still codes
			v, err = s.bookings().FindView(ctx, nil, "code", ref, caps)
		}
	} else {
		v, err = s.bookings().FindView(ctx, nil, "code", ref, caps)
	}
	if err != nil {
		if domain.IsNotFound(err) {
			return models.BookingView{}, err
		}
		return models.BookingView{}, domain.InternalError{Msg: "gagal memuat booking", Err: err}
	}
	return v, nil
}
