package services

import (
	"strings"

	intdb "cargobooking/internal/db"
	"cargobooking/internal/domain/models"
)

// NormalizeType returns "20ft" or "40ft" for an exact (trimmed) match, otherwise ""
// meaning unspecified.
func NormalizeType(raw string) string {
	switch t := strings.TrimSpace(raw); t {
	case models.ContainerType20ft, models.ContainerType40ft:
		return t
	}
	return ""
}

// SlotWidth is how many container numbers a container of typ consumes:
// 20ft takes two, 40ft one, an unspecified type none.
func SlotWidth(typ string) int {
	switch NormalizeType(typ) {
	case models.ContainerType20ft:
		return 2
	case models.ContainerType40ft:
		return 1
	}
	return 0
}

// ContainersFromForm converts the flat form arrays into explicit per-position
// containers. types[i] belongs to position i; numbers is one pool consumed left
// to right, SlotWidth entries per position. Positions run up to
// max(declared, len(types)). It returns nil when no type was submitted.
func ContainersFromForm(declared int, types, numbers []string, from, to []*int64) []models.ContainerInput {
	if len(types) == 0 {
		return nil
	}
	n := declared
	if len(types) > n {
		n = len(types)
	}

	out := make([]models.ContainerInput, 0, n)
	cursor := 0
	for i := 0; i < n; i++ {
		typ := NormalizeType(at(types, i))
		width := SlotWidth(typ)
		nums := make([]string, width)
		for k := 0; k < width; k++ {
			nums[k] = at(numbers, cursor+k)
		}
		cursor += width

		out = append(out, models.ContainerInput{
			Type:           typ,
			Numbers:        nums,
			FromLocationID: atID(from, i),
			ToLocationID:   atID(to, i),
		})
	}
	return out
}

// LocationDefaults is the booking-level route applied to containers.
type LocationDefaults struct {
	From       *int64
	To         *int64
	SameForAll bool
}

// AllocateContainers turns submitted positions into rows. Position i becomes
// sequence i+1; positions carrying no type, number or effective location are
// skipped, leaving a gap in the sequence. An unspecified type is stored as 20ft
// when the schema does not allow NULL types. CreatedBy and UpdatedBy are set to actor.
func AllocateContainers(containers []models.ContainerInput, declared int, loc LocationDefaults, caps intdb.Capabilities, actor int64) []models.ContainerRow {
	n := declared
	if len(containers) > n {
		n = len(containers)
	}

	rows := []models.ContainerRow{}
	for i := 0; i < n; i++ {
		var in models.ContainerInput
		if i < len(containers) {
			in = containers[i]
		}

		typ := NormalizeType(in.Type)
		width := SlotWidth(typ)
		var n1, n2 *string
		if width >= 1 {
			n1 = nonBlank(at(in.Numbers, 0))
		}
		if width == 2 {
			n2 = nonBlank(at(in.Numbers, 1))
		}

		from, to := ResolveEffectiveLocation(in.FromLocationID, in.ToLocationID, loc.From, loc.To, loc.SameForAll, caps.HasPerContainerLocations)

		if typ == "" && n1 == nil && n2 == nil && from == nil && to == nil {
			continue
		}
		if typ == "" && !caps.ContainerTypeNullable {
			typ = models.ContainerType20ft
		}

		var typPtr *string
		if typ != "" {
			t := typ
			typPtr = &t
		}
		rows = append(rows, models.ContainerRow{
			Sequence:       i + 1,
			Type:           typPtr,
			Number1:        n1,
			Number2:        n2,
			FromLocationID: from,
			ToLocationID:   to,
			CreatedBy:      actor,
			UpdatedBy:      actor,
		})
	}
	return rows
}

// applyCreatedBy restores the original creator per sequence from a pre-delete snapshot.
func applyCreatedBy(rows []models.ContainerRow, snapshot map[int]int64) {
	for i := range rows {
		if by, ok := snapshot[rows[i].Sequence]; ok && by > 0 {
			rows[i].CreatedBy = by
		}
	}
}

func at(ss []string, i int) string {
	if i < 0 || i >= len(ss) {
		return ""
	}
	return ss[i]
}

func atID(ids []*int64, i int) *int64 {
	if i < 0 || i >= len(ids) {
		return nil
	}
	return ids[i]
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
