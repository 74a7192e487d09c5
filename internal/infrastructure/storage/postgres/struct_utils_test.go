package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mercator/internal/core/entity"
	"mercator/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	Unit    string  `db:"unit" json:"unit"`
	Barcode *string `db:"barcode" json:"barcode,omitempty"`
	Skipped string  `db:"-" json:"skipped"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "deletion_mark", "version", "code", "name", "is_active", "unit", "barcode"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Skipped")
}

func TestStructToMap(t *testing.T) {
	barcode := "4601234567890"
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseCatalog: entity.BaseCatalog{
				BaseEntity: entity.BaseEntity{
					ID:           id.New(),
					DeletionMark: true,
					Version:      5,
				},
			},
			Code:     "ITM-00042",
			Name:     "Surgical Gloves",
			IsActive: true,
		},
		Unit:    "pair",
		Barcode: &barcode,
		Skipped: "not persisted",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "ITM-00042", m["code"])
	assert.Equal(t, "Surgical Gloves", m["name"])
	assert.Equal(t, "pair", m["unit"])
	assert.Equal(t, &barcode, m["barcode"])
	assert.NotContains(t, m, "-")
}

func TestStructToMap_PointerInput(t *testing.T) {
	cat := &mockCatalog{Unit: "pcs"}
	m := StructToMap(cat)
	assert.Equal(t, "pcs", m["unit"])
}
