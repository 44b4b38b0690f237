package services

import (
	"testing"

	intdb "cargobooking/internal/db"
	"cargobooking/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v int64) *int64 { return &v }

func TestNormalizeTypeAndSlotWidth(t *testing.T) {
	cases := []struct {
		raw   string
		typ   string
		width int
	}{
		{"20ft", "20ft", 2},
		{" 40ft ", "40ft", 1},
		{"", "", 0},
		{"20FT", "", 0},
		{"45ft", "", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.typ, NormalizeType(tc.raw), "type of %q", tc.raw)
		assert.Equal(t, tc.width, SlotWidth(tc.raw), "width of %q", tc.raw)
	}
}

func TestContainersFromFormConsumesSlotsByType(t *testing.T) {
	got := ContainersFromForm(3,
		[]string{"20ft", "40ft", "20ft"},
		[]string{"A", "B", "C", "D", "E"},
		nil, nil,
	)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B"}, got[0].Numbers)
	assert.Equal(t, []string{"C"}, got[1].Numbers)
	assert.Equal(t, []string{"D", "E"}, got[2].Numbers)
}

func TestContainersFromFormUnspecifiedConsumesNothing(t *testing.T) {
	containers := ContainersFromForm(2, []string{"", "40ft"}, []string{"X"}, nil, nil)
	require.Len(t, containers, 2)
	assert.Empty(t, containers[0].Numbers)
	assert.Equal(t, []string{"X"}, containers[1].Numbers)

	caps := intdb.Capabilities{HasContainerTable: true, ContainerTypeNullable: true}
	rows := AllocateContainers(containers, 2, LocationDefaults{}, caps, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Sequence)
	assert.Equal(t, "X", *rows[0].Number1)
	assert.Nil(t, rows[0].Number2)
}

func TestContainersFromFormWithoutTypes(t *testing.T) {
	assert.Nil(t, ContainersFromForm(3, nil, []string{"A"}, nil, nil))
}

func TestContainersFromFormCarriesLocationsByPosition(t *testing.T) {
	got := ContainersFromForm(2,
		[]string{"40ft", "40ft"},
		[]string{"A", "B"},
		[]*int64{nil, id(3)},
		[]*int64{id(4)},
	)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].FromLocationID)
	assert.Equal(t, int64(4), *got[0].ToLocationID)
	assert.Equal(t, int64(3), *got[1].FromLocationID)
	assert.Nil(t, got[1].ToLocationID)
}

func TestAllocateContainers40ftNeverHasSecondNumber(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true}
	rows := AllocateContainers([]models.ContainerInput{
		{Type: "40ft", Numbers: []string{"A", "B"}},
		{Type: "20ft", Numbers: []string{"C", "D"}},
		{Type: "40ft", Numbers: []string{"", "E"}},
	}, 3, LocationDefaults{}, caps, 1)

	for _, r := range rows {
		if r.Type != nil && *r.Type == models.ContainerType40ft {
			assert.Nil(t, r.Number2, "sequence %d", r.Sequence)
		}
	}
	require.Len(t, rows, 3)
	assert.Equal(t, "D", *rows[1].Number2)
	assert.Nil(t, rows[2].Number1)
}

func TestAllocateContainersSkipsEmptyPositionsWithoutRenumbering(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true, ContainerTypeNullable: true}
	rows := AllocateContainers([]models.ContainerInput{
		{Type: "20ft", Numbers: []string{"A", "B"}},
		{},
		{Type: "40ft", Numbers: []string{"C"}},
	}, 3, LocationDefaults{}, caps, 1)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Sequence)
	assert.Equal(t, 3, rows[1].Sequence)
}

func TestAllocateContainersWalksDeclaredCount(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true}
	loc := LocationDefaults{From: id(1), To: id(2)}
	rows := AllocateContainers([]models.ContainerInput{{Type: "40ft", Numbers: []string{"A"}}}, 3, loc, caps, 1)

	require.Len(t, rows, 3, "booking-level locations give every declared position real data")
	assert.Equal(t, "40ft", *rows[0].Type)
	assert.Equal(t, "20ft", *rows[1].Type)
	assert.Equal(t, int64(1), *rows[2].FromLocationID)
}

func TestAllocateContainersDefaultsTypeWhenColumnNotNullable(t *testing.T) {
	in := []models.ContainerInput{{FromLocationID: id(7)}}

	strict := intdb.Capabilities{HasContainerTable: true, HasPerContainerLocations: true}
	rows := AllocateContainers(in, 1, LocationDefaults{}, strict, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ContainerType20ft, *rows[0].Type)

	nullable := strict
	nullable.ContainerTypeNullable = true
	rows = AllocateContainers(in, 1, LocationDefaults{}, nullable, 1)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Type)
	assert.Nil(t, rows[0].ToLocationID)
}

func TestAllocateContainersSameForAllOverwritesOverrides(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true, HasPerContainerLocations: true}
	loc := LocationDefaults{From: id(10), To: id(20), SameForAll: true}
	rows := AllocateContainers([]models.ContainerInput{
		{Type: "20ft", FromLocationID: id(30), ToLocationID: id(40)},
		{Type: "40ft"},
	}, 2, loc, caps, 1)

	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, int64(10), *r.FromLocationID)
		assert.Equal(t, int64(20), *r.ToLocationID)
	}
}

func TestAllocateContainersStampsActorAndRestoresCreator(t *testing.T) {
	caps := intdb.Capabilities{HasContainerTable: true}
	rows := AllocateContainers([]models.ContainerInput{
		{Type: "20ft", Numbers: []string{"A"}},
		{Type: "40ft", Numbers: []string{"B"}},
	}, 2, LocationDefaults{}, caps, 9)

	for _, r := range rows {
		assert.Equal(t, int64(9), r.CreatedBy)
		assert.Equal(t, int64(9), r.UpdatedBy)
	}

	applyCreatedBy(rows, map[int]int64{2: 5, 3: 6})
	assert.Equal(t, int64(9), rows[0].CreatedBy)
	assert.Equal(t, int64(5), rows[1].CreatedBy)
	assert.Equal(t, int64(9), rows[1].UpdatedBy)
}
