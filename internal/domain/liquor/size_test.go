package liquor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/liquor"
)

func TestResolveSize_Prioridad(t *testing.T) {
	tests := []struct {
		name string
		item entity.Item
		cat  entity.Category
		want float64
	}{
		{"CC configurado", entity.Item{SizeCC: 375, SizeLabel: "750 ML"}, entity.CategoryIMFL, 375},
		{"etiqueta con ajuste", entity.Item{SizeLabel: "92ML"}, entity.CategoryIMFL, 90},
		{"etiqueta sin ajuste", entity.Item{SizeLabel: "140 ML"}, entity.CategoryIMFL, 140},
		{"etiqueta sin espacio", entity.Item{SizeLabel: "140ML"}, entity.CategoryIMFL, 140},
		{"etiqueta decimal", entity.Item{SizeLabel: "187.5 ml"}, entity.CategoryIMFL, 180},
		{"nombre sin ajuste", entity.Item{SizeLabel: "QUART", Name: "OLD MONK 745ML"}, entity.CategoryIMFL, 745},
		{"default IMFL", entity.Item{Name: "OLD MONK"}, entity.CategoryIMFL, 750},
		{"default BEER", entity.Item{Name: "KF"}, entity.CategoryBeer, 650},
		{"default CL", entity.Item{Name: "DESI"}, entity.CategoryCL, 180},
		{"default OTHER", entity.Item{}, entity.CategoryOther, 750},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, liquor.ResolveSize(tt.item, tt.cat))
		})
	}
}

func TestSnapSize(t *testing.T) {
	assert.Equal(t, 90.0, liquor.SnapSize(92), "92 está a 2 de 90")
	assert.Equal(t, 140.0, liquor.SnapSize(140), "140 no está cerca de 120 ni de 180")
	assert.Equal(t, 1000.0, liquor.SnapSize(990))
	assert.Equal(t, 330.0, liquor.SnapSize(340), "empate entre 330 y 350: gana el menor")
	assert.Equal(t, 350.0, liquor.SnapSize(345))
}

func TestResolveSize_Determinista(t *testing.T) {
	item := entity.Item{SizeLabel: "PINT 375ML", Name: "MCDOWELL"}
	first := liquor.ResolveSize(item, entity.CategoryIMFL)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, liquor.ResolveSize(item, entity.CategoryIMFL))
	}
}
