package liquor

import (
	"strings"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

var (
	imflWords = wordSet("WHISKY", "WHISKEY", "GIN", "BRANDY", "VODKA", "RUM", "LIQUOR", "WINE", "SCOTCH", "BOURBON", "TEQUILA")
	beerWords = wordSet("BEER", "LAGER", "ALE")
	clWords   = wordSet("COUNTRY", "CL", "DESI", "LOCAL", "TRADITIONAL")
)

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Classify asigna la categoría regulatoria de un ítem para el modo de venta.
// Orden: bandera de la subclase, patrón "<n>ML" en la etiqueta de tamaño, palabras clave, y por último
// el valor por defecto del modo. Un ítem sin datos suficientes nunca produce error: cae en el default.
func Classify(item entity.Item, mode string) entity.Category {
	if c, ok := fromLiquorType(item.LiquorType); ok {
		return c
	}

	label := normalizeLabel(item.SizeLabel)
	if _, ok := extractML(label); ok && mode == entity.ModeForeign {
		return entity.CategoryIMFL
	}

	words := append(tokens(label), tokens(normalizeLabel(item.Name))...)
	if mode == entity.ModeCountry && hasAny(words, clWords) {
		return entity.CategoryCL
	}
	if hasAny(words, imflWords) {
		return entity.CategoryIMFL
	}
	if hasAny(words, beerWords) {
		return entity.CategoryBeer
	}

	switch mode {
	case entity.ModeForeign:
		return entity.CategoryIMFL
	case entity.ModeCountry:
		return entity.CategoryCL
	default:
		return entity.CategoryOther
	}
}

func fromLiquorType(flag string) (entity.Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(flag)) {
	case "F", "FL", "IMFL":
		return entity.CategoryIMFL, true
	case "C", "CL":
		return entity.CategoryCL, true
	case "B", "BEER":
		return entity.CategoryBeer, true
	}
	return "", false
}

func hasAny(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
