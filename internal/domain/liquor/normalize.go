package liquor

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

var (
	upper = cases.Upper(language.Und)
	// mlPattern captura un número seguido de "ML" (con o sin espacio), ej. "750ML", "375 ML", "187.5ml".
	mlPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*ML\b`)
	tokenSep  = regexp.MustCompile(`[^A-Z0-9]+`)
)

// normalizeLabel pliega caracteres de ancho completo ("７５０ｍｌ") y pasa a mayúsculas.
func normalizeLabel(s string) string {
	return upper.String(width.Fold.String(strings.TrimSpace(s)))
}

// extractML devuelve el primer volumen "<n>ML" del texto ya normalizado.
func extractML(normalized string) (float64, bool) {
	m := mlPattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func tokens(normalized string) []string {
	return tokenSep.Split(normalized, -1)
}
