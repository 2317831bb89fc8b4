package postgres

import (
	"context"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo lectura del maestro de ítems con su subclase y grupo de tamaño.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// El volumen del grupo depende del modo pedido ($2).
const itemSelect = `
	SELECT i.code, i.name, COALESCE(sg.label, ''), COALESCE(sc.liquor_type, ''),
	       COALESCE(CASE WHEN $2 = 'C' THEN sg.size_cc_c ELSE sg.size_cc_f END, 0)::float8,
	       i.rate, i.mode
	FROM items i
	LEFT JOIN item_subclasses sc ON sc.code = i.subclass_code
	LEFT JOIN size_groups sg ON sg.code = i.size_group_code`

// GetByCode devuelve nil, nil si el ítem no existe.
func (r *ItemRepo) GetByCode(ctx context.Context, code, mode string) (*entity.Item, error) {
	var it entity.Item
	err := r.q.QueryRow(ctx, itemSelect+` WHERE i.code = $1`, code, mode).Scan(
		&it.Code, &it.Name, &it.SizeLabel, &it.LiquorType, &it.SizeCC, &it.Rate, &it.Mode,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get item", err)
	}
	return &it, nil
}

func (r *ItemRepo) GetByCodes(ctx context.Context, codes []string, mode string) (map[string]*entity.Item, error) {
	out := make(map[string]*entity.Item, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, itemSelect+` WHERE i.code = ANY($1)`, codes, mode)
	if err != nil {
		return nil, wrapErr("list items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.Item
		if err := rows.Scan(&it.Code, &it.Name, &it.SizeLabel, &it.LiquorType, &it.SizeCC, &it.Rate, &it.Mode); err != nil {
			return nil, wrapErr("scan item", err)
		}
		out[it.Code] = &it
	}
	return out, wrapErr("list items", rows.Err())
}
