package entity

// RequestContext datos de la sesión del usuario que viajan explícitamente hacia los casos de uso.
type RequestContext struct {
	CompanyID string
	UserID    string
	FinYearID string
}
