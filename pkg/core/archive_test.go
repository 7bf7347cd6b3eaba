package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_AddAndOrder(t *testing.T) {
	a := NewArchive(ArchiveProperties{UID: "a"})

	require.NoError(t, a.Add(&Record{UID: "r2"}))
	require.NoError(t, a.Add(&Record{UID: "r1"}))

	recs := a.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "r2", recs[0].UID)
	assert.Equal(t, "r1", recs[1].UID)
	assert.Equal(t, 2, a.Properties.NumberOfRecords)

	r, ok := a.Get("r1")
	assert.True(t, ok)
	assert.Equal(t, "r1", r.UID)

	_, ok = a.Get("missing")
	assert.False(t, ok)
}

func TestArchive_AddDuplicate(t *testing.T) {
	a := NewArchive(ArchiveProperties{})
	require.NoError(t, a.Add(&Record{UID: "r1"}))

	err := a.Add(&Record{UID: "r1"})
	assert.ErrorIs(t, err, ErrDuplicateRecord)
	assert.Equal(t, 1, a.Len())
}

func TestArchive_Merge(t *testing.T) {
	a := NewArchive(ArchiveProperties{})
	b := NewArchive(ArchiveProperties{})
	require.NoError(t, a.Add(&Record{UID: "a1"}))
	require.NoError(t, b.Add(&Record{UID: "b1"}))
	require.NoError(t, b.Add(&Record{UID: "b2"}))

	require.NoError(t, a.Merge(b))
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 3, a.Properties.NumberOfRecords)
	assert.Equal(t, "b2", a.Records()[2].UID)
}

func TestArchive_MergeCollisionAddsNothing(t *testing.T) {
	a := NewArchive(ArchiveProperties{})
	b := NewArchive(ArchiveProperties{})
	require.NoError(t, a.Add(&Record{UID: "x"}))
	require.NoError(t, b.Add(&Record{UID: "y"}))
	require.NoError(t, b.Add(&Record{UID: "x"}))

	err := a.Merge(b)
	assert.ErrorIs(t, err, ErrDuplicateRecord)
	assert.Equal(t, 1, a.Len())
}

func TestTable_Column(t *testing.T) {
	tbl := Table{
		Columns: []Column{{Name: "T", Type: ColumnInt}, {Name: "x"}},
		Rows:    [][]float64{{0, 1.5}, {1, math.NaN()}},
	}

	assert.Equal(t, 1, tbl.ColumnIndex("x"))
	assert.Equal(t, -1, tbl.ColumnIndex("y"))
	assert.Equal(t, []float64{0, 1}, tbl.Column("T"))
	assert.Nil(t, tbl.Column("y"))
}

func TestRecordKind(t *testing.T) {
	assert.Equal(t, "point", KindPoint.String())
	assert.Equal(t, "shape", KindShape.String())
}

func TestSpot_Feature(t *testing.T) {
	s := Spot{Features: map[string]float64{"QUALITY": 3}}
	v, ok := s.Feature("QUALITY")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = s.Feature("RADIUS")
	assert.False(t, ok)

	_, ok = Spot{}.Feature("QUALITY")
	assert.False(t, ok)
	assert.False(t, Spot{}.HasShape())
	assert.True(t, Spot{Shape: &Shape{Vertices: []Position2D{{}}}}.HasShape())
}
