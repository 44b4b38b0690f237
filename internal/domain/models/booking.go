package models

import "time"

const (
	ContainerType20ft = "20ft"
	ContainerType40ft = "40ft"
)

// Booking is the persisted booking header.
type Booking struct {
	ID             int64
	BookingCode    string
	ClientID       int64
	ContainerCount int
	FromLocationID *int64
	ToLocationID   *int64
	Status         string
	CreatedBy      int64
	UpdatedBy      int64
}

// BookingInput carries a create/update submission.
type BookingInput struct {
	BookingCode    string
	AutoReference  bool
	ClientID       int64
	ContainerCount int
	FromLocationID *int64
	ToLocationID   *int64
	SameForAll     bool
	Status         string
	// Containers is indexed by position; Containers[i] is sequence i+1.
	Containers []ContainerInput
}

// ContainerInput is one submitted container position.
type ContainerInput struct {
	Type           string
	Numbers        []string
	FromLocationID *int64
	ToLocationID   *int64
}

// ContainerRow is one allocated booking_containers row ready to be written.
type ContainerRow struct {
	Sequence       int
	Type           *string
	Number1        *string
	Number2        *string
	FromLocationID *int64
	ToLocationID   *int64
	CreatedBy      int64
	UpdatedBy      int64
}

// BookingView is the read-side booking with joined client/location names.
type BookingView struct {
	ID               int64           `json:"id"`
	BookingCode      string          `json:"booking_id"`
	ClientID         int64           `json:"client_id"`
	ClientName       string          `json:"client_name"`
	ClientCode       string          `json:"client_code"`
	ContainerCount   int             `json:"container_count"`
	FromLocationID   *int64          `json:"from_location_id"`
	FromLocationName string          `json:"from_location_name,omitempty"`
	ToLocationID     *int64          `json:"to_location_id"`
	ToLocationName   string          `json:"to_location_name,omitempty"`
	Status           string          `json:"status"`
	CreatedBy        int64           `json:"created_by"`
	UpdatedBy        int64           `json:"updated_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Containers       []ContainerView `json:"containers"`

	LegacyContainerType   string `json:"-"`
	LegacyContainerNumber string `json:"-"`
}

// ContainerView is a container row with joined location names.
type ContainerView struct {
	Sequence         int     `json:"sequence"`
	Type             *string `json:"type"`
	Number1          *string `json:"number_1"`
	Number2          *string `json:"number_2"`
	FromLocationID   *int64  `json:"from_location_id,omitempty"`
	FromLocationName string  `json:"from_location_name,omitempty"`
	ToLocationID     *int64  `json:"to_location_id,omitempty"`
	ToLocationName   string  `json:"to_location_name,omitempty"`
	CreatedBy        int64   `json:"created_by"`
	UpdatedBy        int64   `json:"updated_by"`
	Legacy           bool    `json:"legacy,omitempty"`
}

// BookingSummary is one row of the booking list.
type BookingSummary struct {
	ID             int64     `json:"id"`
	BookingCode    string    `json:"booking_id"`
	ClientName     string    `json:"client_name"`
	ContainerCount int       `json:"container_count"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// BookingFilter narrows the booking list.
type BookingFilter struct {
	Status   string
	ClientID int64
}
