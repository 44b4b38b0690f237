package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"cargobooking/internal/domain"
	"cargobooking/internal/domain/models"
	"cargobooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/next-reference?year=
func NextBookingReference(c *gin.Context) {
	year := time.Now().Year()
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "year tidak valid", err)
			return
		}
		year = y
	}
	code, err := bookingService(c).NextReference(c.Request.Context(), year)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": code, "year": year})
}

// GET /api/bookings
func ListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", c.DefaultQuery("page_size", "20")))
	filter := models.BookingFilter{Status: strings.TrimSpace(c.Query("status"))}
	if id, err := strconv.ParseInt(c.Query("client_id"), 10, 64); err == nil && id > 0 {
		filter.ClientID = id
	}

	items, p, err := queryService(c).List(c.Request.Context(), filter, domain.Pagination{Page: page, PageSize: size})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "pagination": p})
}

// GET /api/bookings/:ref
func GetBooking(c *gin.Context) {
	v, err := queryService(c).GetBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /api/bookings/:ref/containers
func GetBookingContainers(c *gin.Context) {
	q := queryService(c)
	id, err := q.ResolveID(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	containers, err := q.GetContainers(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": id, "containers": containers})
}

// POST /api/bookings
func CreateBooking(c *gin.Context) {
	in, ok := bindBookingInput(c)
	if !ok {
		return
	}
	b, err := bookingService(c).Create(c.Request.Context(), in, middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondSaved(c, http.StatusCreated, "booking berhasil dibuat", b)
}

// PUT /api/bookings/:ref
func UpdateBooking(c *gin.Context) {
	id, err := queryService(c).ResolveID(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	in, ok := bindBookingInput(c)
	if !ok {
		return
	}
	b, err := bookingService(c).Update(c.Request.Context(), id, in, middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondSaved(c, http.StatusOK, "booking berhasil diperbarui", b)
}

type statusPayload struct {
	Status Stringish `json:"status"`
}

// PATCH /api/bookings/:ref/status
func UpdateBookingStatus(c *gin.Context) {
	id, err := queryService(c).ResolveID(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	var req statusPayload
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := bookingService(c).UpdateStatus(c.Request.Context(), id, req.Status.String(), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondSaved(c, http.StatusOK, "status booking diperbarui", b)
}

// DELETE /api/bookings/:ref
func DeleteBooking(c *gin.Context) {
	id, err := queryService(c).ResolveID(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if err := bookingService(c).Delete(c.Request.Context(), id, middleware.Actor(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking berhasil dihapus", "id": id})
}

func bindBookingInput(c *gin.Context) (models.BookingInput, bool) {
	p, err := readBookingPayload(c)
	if err != nil {
		if err == errEmptyBody {
			RespondError(c, http.StatusBadRequest, "body kosong", nil)
		} else {
			RespondError(c, http.StatusBadRequest, "payload tidak valid", err)
		}
		return models.BookingInput{}, false
	}
	in, err := p.toInput()
	if err != nil {
		RespondDomainError(c, err)
		return models.BookingInput{}, false
	}
	return in, true
}

func respondSaved(c *gin.Context, status int, msg string, b models.Booking) {
	c.JSON(status, gin.H{
		"message":         msg,
		"id":              b.ID,
		"booking_id":      b.BookingCode,
		"status":          b.Status,
		"container_count": b.ContainerCount,
		"request_id":      middleware.GetRequestID(c),
	})
}
