package entity

import "github.com/shopspring/decimal"

// Modo regulatorio de la venta / del ítem.
const (
	ModeForeign = "F" // licor extranjero (IMFL, cerveza)
	ModeCountry = "C" // licor de país
	ModeOther   = "O"
)

// ValidSaleMode indica si el modo es aceptado para generar facturas.
func ValidSaleMode(mode string) bool {
	return mode == ModeForeign || mode == ModeCountry
}

// Item representa un artículo del maestro (solo lectura durante la generación de facturas).
type Item struct {
	Code       string
	Name       string
	SizeLabel  string // texto libre del grupo/tamaño, ej. "750 ML", "PINT 375ML"
	LiquorType string // bandera explícita de la subclase: F, FL, C, CL, B, BEER (vacío si no hay)
	SizeCC     float64 // volumen configurado para el grupo de tamaño en el modo pedido (0 = no configurado)
	Rate       decimal.Decimal
	Mode       string
}
