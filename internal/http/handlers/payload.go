package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"cargobooking/internal/domain"
	"cargobooking/internal/domain/models"
	"cargobooking/internal/services"
	"cargobooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// Stringish menoleransi string/number/bool menjadi string.
type Stringish string

func (s *Stringish) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null" || len(b) == 0:
		*s = ""
		return nil
	case len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Stringish(str)
		return nil
	default:
		*s = Stringish(strings.Trim(string(b), `"`))
		return nil
	}
}

func (s Stringish) String() string { return strings.TrimSpace(string(s)) }

// ID returns the value as a positive id, or nil when blank or not a number.
func (s Stringish) ID() *int64 { return utils.ParseOptionalID(s.String()) }

func (s Stringish) Int() int {
	n, _ := strconv.Atoi(s.String())
	return n
}

func (s Stringish) Flag() bool { return utils.ParseFlag(s.String()) }

type containerPayload struct {
	Type           Stringish   `json:"type"`
	Numbers        []Stringish `json:"numbers"`
	Number1        Stringish   `json:"number_1"`
	Number2        Stringish   `json:"number_2"`
	FromLocationID Stringish   `json:"from_location_id"`
	ToLocationID   Stringish   `json:"to_location_id"`
}

// bookingPayload accepts either an explicit containers list or the flat
// parallel arrays the booking form posts.
type bookingPayload struct {
	BookingCode    Stringish `json:"booking_id"`
	BookingCode2   Stringish `json:"booking_code"`
	AutoReference  Stringish `json:"auto_reference"`
	ClientID       Stringish `json:"client_id"`
	ContainerCount Stringish `json:"container_count"`
	FromLocationID Stringish `json:"from_location_id"`
	ToLocationID   Stringish `json:"to_location_id"`
	SameForAll     Stringish `json:"same_for_all"`
	Status         Stringish `json:"status"`

	Containers []containerPayload `json:"containers"`

	ContainerTypes   []Stringish `json:"container_types"`
	ContainerNumbers []Stringish `json:"container_numbers"`
	ContainerFrom    []Stringish `json:"container_from"`
	ContainerTo      []Stringish `json:"container_to"`
}

var errEmptyBody = errors.New("body kosong")

// readBookingPayload decodes a JSON body, or a urlencoded/multipart form
// using the same field names (arrays may carry a [] suffix).
func readBookingPayload(c *gin.Context) (bookingPayload, error) {
	var p bookingPayload
	ct := c.ContentType()
	if ct == gin.MIMEPOSTForm || ct == gin.MIMEMultipartPOSTForm {
		return formPayload(c)
	}

	if c.Request.Body == nil {
		return p, errEmptyBody
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return p, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return p, errEmptyBody
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

func formPayload(c *gin.Context) (bookingPayload, error) {
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(8 << 20); err != nil {
			return bookingPayload{}, err
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return bookingPayload{}, err
	}

	one := func(key string) Stringish { return Stringish(c.PostForm(key)) }
	many := func(key string) []Stringish {
		vals := c.PostFormArray(key + "[]")
		if len(vals) == 0 {
			vals = c.PostFormArray(key)
		}
		out := make([]Stringish, len(vals))
		for i, v := range vals {
			out[i] = Stringish(v)
		}
		return out
	}

	return bookingPayload{
		BookingCode:      one("booking_id"),
		BookingCode2:     one("booking_code"),
		AutoReference:    one("auto_reference"),
		ClientID:         one("client_id"),
		ContainerCount:   one("container_count"),
		FromLocationID:   one("from_location_id"),
		ToLocationID:     one("to_location_id"),
		SameForAll:       one("same_for_all"),
		Status:           one("status"),
		ContainerTypes:   many("container_types"),
		ContainerNumbers: many("container_numbers"),
		ContainerFrom:    many("container_from"),
		ContainerTo:      many("container_to"),
	}, nil
}

// toInput converts the payload; an explicit containers list wins over the
// flat arrays.
func (p bookingPayload) toInput() (models.BookingInput, error) {
	code := p.BookingCode.String()
	if code == "" {
		code = p.BookingCode2.String()
	}

	in := models.BookingInput{
		BookingCode:    code,
		AutoReference:  p.AutoReference.Flag(),
		ContainerCount: p.ContainerCount.Int(),
		FromLocationID: p.FromLocationID.ID(),
		ToLocationID:   p.ToLocationID.ID(),
		SameForAll:     p.SameForAll.Flag(),
		Status:         p.Status.String(),
	}
	if id := p.ClientID.ID(); id != nil {
		in.ClientID = *id
	}
	if p.ContainerCount.String() != "" && in.ContainerCount == 0 && p.ContainerCount.String() != "0" {
		return in, domain.ValidationError{Field: "container_count", Msg: "harus berupa angka"}
	}

	if len(p.Containers) > 0 {
		in.Containers = make([]models.ContainerInput, 0, len(p.Containers))
		for _, cp := range p.Containers {
			in.Containers = append(in.Containers, cp.toInput())
		}
		return in, nil
	}

	in.Containers = services.ContainersFromForm(
		in.ContainerCount,
		stringsOf(p.ContainerTypes),
		stringsOf(p.ContainerNumbers),
		idsOf(p.ContainerFrom),
		idsOf(p.ContainerTo),
	)
	return in, nil
}

func (cp containerPayload) toInput() models.ContainerInput {
	nums := stringsOf(cp.Numbers)
	if len(nums) == 0 {
		nums = []string{cp.Number1.String(), cp.Number2.String()}
	}
	return models.ContainerInput{
		Type:           cp.Type.String(),
		Numbers:        nums,
		FromLocationID: cp.FromLocationID.ID(),
		ToLocationID:   cp.ToLocationID.ID(),
	}
}

func stringsOf(vals []Stringish) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func idsOf(vals []Stringish) []*int64 {
	out := make([]*int64, len(vals))
	for i, v := range vals {
		out[i] = v.ID()
	}
	return out
}
