package liquor

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

const (
	DefaultMaxIterations = 1000
	DefaultForcedChunk   = 10

	// fitEpsilon absorbe errores de redondeo de float64 al dividir el espacio libre por el tamaño.
	fitEpsilon = 1e-9
)

// Line ítem de un día listo para empaquetar: cantidad en unidades, tamaño unitario en ml y categoría ya resueltos.
type Line struct {
	Code     string
	Name     string
	Qty      int
	Rate     decimal.Decimal
	Size     float64
	Category entity.Category
}

// DraftLine línea de un borrador de factura.
type DraftLine struct {
	Code     string
	Name     string
	Qty      int
	Rate     decimal.Decimal
	Size     float64
	Category entity.Category
	Amount   decimal.Decimal
}

// BillDraft factura en memoria con el volumen acumulado por categoría.
// Para cada categoría con límite L>0 se cumple Volume[c] <= L, salvo en borradores Forced.
type BillDraft struct {
	Lines  []DraftLine
	Volume map[entity.Category]float64
	// Forced marca borradores creados por la válvula de seguridad; pueden exceder el límite.
	Forced bool

	index map[string]int
}

func newDraft() *BillDraft {
	return &BillDraft{
		Volume: make(map[entity.Category]float64, len(entity.CategoryOrder)),
		index:  make(map[string]int),
	}
}

// add agrega qty unidades del ítem; si el código ya está en el borrador suma sobre la misma línea.
func (d *BillDraft) add(l Line, qty int) {
	amount := l.Rate.Mul(decimal.NewFromInt(int64(qty)))
	if i, ok := d.index[l.Code]; ok {
		d.Lines[i].Qty += qty
		d.Lines[i].Amount = d.Lines[i].Amount.Add(amount)
	} else {
		d.index[l.Code] = len(d.Lines)
		d.Lines = append(d.Lines, DraftLine{
			Code:     l.Code,
			Name:     l.Name,
			Qty:      qty,
			Rate:     l.Rate,
			Size:     l.Size,
			Category: l.Category,
			Amount:   amount,
		})
	}
	d.Volume[l.Category] += float64(qty) * l.Size
}

// Total suma los importes de las líneas.
func (d *BillDraft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Empty indica si el borrador no tiene líneas.
func (d *BillDraft) Empty() bool { return len(d.Lines) == 0 }

// Options parámetros del empaquetado.
type Options struct {
	MaxIterations int // tope de facturas por pasada antes de la válvula de seguridad
	ForcedChunk   int // unidades máximas por factura forzada
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.ForcedChunk <= 0 {
		o.ForcedChunk = DefaultForcedChunk
	}
	return o
}

// PackResult resultado del empaquetado.
type PackResult struct {
	Drafts     []*BillDraft
	Iterations int
	// Forced cantidad de borradores generados por la válvula de seguridad (0 en condiciones normales).
	Forced int
}

type poolEntry struct {
	line      Line
	remaining int
}

// Pack reparte las líneas de un día en borradores de factura respetando el límite de volumen de cada categoría.
//
// Cada pasada abre un borrador, recorre las categorías en CategoryOrder tomando de cada ítem (ordenados
// de mayor a menor tamaño) todas las unidades que quepan, y luego rellena el espacio sobrante probando
// los ítems de menor a mayor. Las categorías sin límite se colocan completas en una sola pasada.
// Si se alcanza MaxIterations, o una pasada no logra colocar nada (un ítem más grande que su límite),
// lo pendiente se vuelca en facturas forzadas de un solo ítem con a lo sumo ForcedChunk unidades.
// Nunca se pierden ni duplican unidades. Función pura y determinista.
func Pack(lines []Line, limits entity.CategoryLimits, opts Options) PackResult {
	opts = opts.withDefaults()
	pools := buildPools(lines)
	var res PackResult

	for _, cat := range entity.CategoryOrder {
		slices.SortStableFunc(pools[cat], func(a, b *poolEntry) int {
			return cmp.Compare(b.line.Size, a.line.Size)
		})
	}

	for res.Iterations < opts.MaxIterations && pending(pools) {
		res.Iterations++
		draft := newDraft()

		for _, cat := range entity.CategoryOrder {
			limit := limits.For(cat)
			for _, e := range pools[cat] {
				if e.remaining == 0 {
					continue
				}
				if limit <= 0 || e.line.Size <= 0 {
					draft.add(e.line, e.remaining)
					e.remaining = 0
					continue
				}
				if draft.Volume[cat] >= limit {
					break
				}
				fit(draft, e, limit)
			}
		}

		fillRemainder(draft, pools, limits)

		if draft.Empty() {
			break
		}
		res.Drafts = append(res.Drafts, draft)
	}

	if pending(pools) {
		forced := forceFlush(pools, opts.ForcedChunk)
		res.Forced = len(forced)
		res.Drafts = append(res.Drafts, forced...)
	}
	return res
}

// fillRemainder aprovecha el hueco que quedó en cada categoría limitada probando primero los ítems más chicos.
func fillRemainder(draft *BillDraft, pools map[entity.Category][]*poolEntry, limits entity.CategoryLimits) {
	for _, cat := range entity.CategoryOrder {
		limit := limits.For(cat)
		if limit <= 0 || limit-draft.Volume[cat] <= 0 {
			continue
		}
		asc := slices.Clone(pools[cat])
		slices.SortStableFunc(asc, func(a, b *poolEntry) int {
			return cmp.Compare(a.line.Size, b.line.Size)
		})
		for _, e := range asc {
			if e.remaining == 0 || e.line.Size <= 0 {
				continue
			}
			if limit-draft.Volume[cat] < e.line.Size {
				break
			}
			fit(draft, e, limit)
		}
	}
}

// fit agrega al borrador todas las unidades de e que caben en el espacio libre de su categoría.
func fit(draft *BillDraft, e *poolEntry, limit float64) {
	available := limit - draft.Volume[e.line.Category]
	if available+fitEpsilon < e.line.Size {
		return
	}
	maxUnits := int(math.Floor(available/e.line.Size + fitEpsilon))
	qty := min(e.remaining, maxUnits)
	if qty <= 0 {
		return
	}
	draft.add(e.line, qty)
	e.remaining -= qty
}

func forceFlush(pools map[entity.Category][]*poolEntry, chunk int) []*BillDraft {
	var out []*BillDraft
	for _, cat := range entity.CategoryOrder {
		for _, e := range pools[cat] {
			for e.remaining > 0 {
				qty := min(e.remaining, chunk)
				d := newDraft()
				d.Forced = true
				d.add(e.line, qty)
				e.remaining -= qty
				out = append(out, d)
			}
		}
	}
	return out
}

// buildPools agrupa por categoría, uniendo códigos repetidos y descartando cantidades no positivas.
func buildPools(lines []Line) map[entity.Category][]*poolEntry {
	pools := make(map[entity.Category][]*poolEntry, len(entity.CategoryOrder))
	byCode := make(map[string]*poolEntry, len(lines))
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		if !slices.Contains(entity.CategoryOrder, l.Category) {
			l.Category = entity.CategoryOther
		}
		if e, ok := byCode[l.Code]; ok {
			e.remaining += l.Qty
			continue
		}
		e := &poolEntry{line: l, remaining: l.Qty}
		byCode[l.Code] = e
		pools[l.Category] = append(pools[l.Category], e)
	}
	return pools
}

func pending(pools map[entity.Category][]*poolEntry) bool {
	for _, pool := range pools {
		for _, e := range pool {
			if e.remaining > 0 {
				return true
			}
		}
	}
	return false
}
