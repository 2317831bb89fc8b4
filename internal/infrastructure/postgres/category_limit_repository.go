package postgres

import (
	"context"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

var _ repository.CategoryLimitRepository = (*CategoryLimitRepo)(nil)

// CategoryLimitRepo límites de volumen por empresa.
type CategoryLimitRepo struct {
	q Querier
}

func NewCategoryLimitRepository(q Querier) *CategoryLimitRepo {
	return &CategoryLimitRepo{q: q}
}

// GetByCompany sin fila configurada devuelve todo en cero (sin límite).
func (r *CategoryLimitRepo) GetByCompany(ctx context.Context, companyID string) (entity.CategoryLimits, error) {
	l := entity.CategoryLimits{CompanyID: companyID}
	query := `
		SELECT imfl_limit::float8, beer_limit::float8, cl_limit::float8
		FROM category_limits WHERE company_id = $1`
	err := r.q.QueryRow(ctx, query, companyID).Scan(&l.IMFL, &l.Beer, &l.CL)
	if err != nil && !isNoRows(err) {
		return l, wrapErr("get category limits", err)
	}
	return l, nil
}
