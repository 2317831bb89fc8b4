package entity

// Category es la categoría regulatoria de un licor. Los límites de volumen por factura se configuran por categoría.
type Category string

const (
	CategoryIMFL  Category = "IMFL" // licor extranjero / Indian Made Foreign Liquor
	CategoryBeer  Category = "BEER"
	CategoryCL    Category = "CL" // licor de país (country liquor)
	CategoryOther Category = "OTHER"
)

// CategoryOrder es el orden fijo en que el empaquetador procesa las categorías.
var CategoryOrder = []Category{CategoryIMFL, CategoryBeer, CategoryCL, CategoryOther}

// CategoryLimits volumen máximo (ml) permitido por factura para cada categoría de una empresa.
// Cero o negativo significa "sin límite".
type CategoryLimits struct {
	CompanyID string
	IMFL      float64
	Beer      float64
	CL        float64
}

// For devuelve el límite configurado para la categoría (0 = sin límite). OTHER nunca está limitada.
func (l CategoryLimits) For(c Category) float64 {
	switch c {
	case CategoryIMFL:
		return l.IMFL
	case CategoryBeer:
		return l.Beer
	case CategoryCL:
		return l.CL
	default:
		return 0
	}
}
