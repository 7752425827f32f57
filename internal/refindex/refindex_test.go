package refindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/grampsxml/internal/models"
)

func TestBuild(t *testing.T) {
	doc := &models.Document{
		People:   []models.Person{{Handle: "p1", ID: "I01"}, {Handle: "p2", ID: "I02"}},
		Families: []models.Family{{Handle: "f1", ID: "F01"}},
		Tags:     []models.Tag{{Handle: "t1", Name: "ToDo"}},
	}
	ix := Build(doc)

	assert.Equal(t, 4, ix.Len())
	kind, ok := ix.Lookup("p2")
	require.True(t, ok)
	assert.Equal(t, models.KindPerson, kind)

	kind, ok = ix.Lookup("t1")
	require.True(t, ok)
	assert.Equal(t, models.KindTag, kind)

	_, ok = ix.Lookup("missing")
	assert.False(t, ok)
	assert.Empty(t, ix.Duplicates())

	e, ok := ix.Entry("f1")
	require.True(t, ok)
	assert.Equal(t, models.Entry{Kind: models.KindFamily, Handle: "f1", ID: "F01", Position: 0}, e)
}

func TestBuildNil(t *testing.T) {
	ix := Build(nil)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Duplicates())
}

func TestBuildDuplicates(t *testing.T) {
	doc := &models.Document{
		People:   []models.Person{{Handle: "x", ID: "I01"}, {Handle: "y", ID: "I02"}},
		Families: []models.Family{{Handle: "x", ID: "F01"}},
		Notes:    []models.Note{{Handle: "y", ID: "N01"}, {Handle: "x", ID: "N02"}},
	}
	ix := Build(doc)

	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []string{"x", "y"}, ix.Duplicates())

	kind, _ := ix.Lookup("x")
	assert.Equal(t, models.KindPerson, kind, "first declaration wins")

	occ := ix.Occurrences("x")
	require.Len(t, occ, 3)
	assert.Equal(t, models.KindPerson, occ[0].Kind)
	assert.Equal(t, models.KindFamily, occ[1].Kind)
	assert.Equal(t, "N02", occ[2].ID)
	assert.Nil(t, ix.Occurrences("missing"))
}

func TestBuilderSkipsEmptyHandles(t *testing.T) {
	b := NewBuilder(2)
	b.Add(models.Entry{Kind: models.KindPerson, Handle: ""})
	b.Add(models.Entry{Kind: models.KindPerson, Handle: ""})
	b.Add(models.Entry{Kind: models.KindEvent, Handle: "e1"})
	ix := b.Index()

	assert.Equal(t, 1, ix.Len())
	assert.Empty(t, ix.Duplicates())
}
