package liquor

import (
	"math"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

// StandardSizes presentaciones estándar (ml) a las que se ajustan los tamaños leídos de texto libre.
var StandardSizes = []float64{30, 60, 90, 120, 180, 250, 330, 350, 500, 650, 750, 1000, 1500}

// SnapTolerance diferencia máxima (ml) para ajustar a una presentación estándar.
const SnapTolerance = 10.0

// DefaultSize volumen por defecto de cada categoría cuando el ítem no informa tamaño.
func DefaultSize(c entity.Category) float64 {
	switch c {
	case entity.CategoryBeer:
		return 650
	case entity.CategoryCL:
		return 180
	default:
		return 750
	}
}

// ResolveSize devuelve el volumen unitario (ml) del ítem. Siempre es positivo.
func ResolveSize(item entity.Item, category entity.Category) float64 {
	if item.SizeCC > 0 {
		return item.SizeCC
	}
	if v, ok := extractML(normalizeLabel(item.SizeLabel)); ok {
		return SnapSize(v)
	}
	if v, ok := extractML(normalizeLabel(item.Name)); ok {
		return v
	}
	return DefaultSize(category)
}

// SnapSize ajusta v a la presentación estándar más cercana si está dentro de SnapTolerance.
// En empate gana la presentación menor.
func SnapSize(v float64) float64 {
	best, bestDiff := v, math.Inf(1)
	for _, s := range StandardSizes {
		d := math.Abs(v - s)
		if d <= SnapTolerance && d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best
}
