package billing

import (
	"fmt"
	"sync"
)

// Valores por defecto de la numeración de facturas.
const (
	DefaultBillPrefix    = "BL"
	DefaultBillMinDigits = 4
)

// FormatBillNumber arma el número visible: prefijo + secuencia con ceros a la izquierda hasta minDigits.
// Secuencias más largas simplemente ocupan más dígitos (BL9999, BL10000).
func FormatBillNumber(prefix string, seq int64, minDigits int) string {
	if minDigits < 1 {
		minDigits = 1
	}
	return fmt.Sprintf("%s%0*d", prefix, minDigits, seq)
}

// companyLocks serializa dentro del proceso la generación de facturas de una misma empresa.
// Entre procesos la serialización la da el bloqueo de fila del contador.
type companyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCompanyLocks() *companyLocks {
	return &companyLocks{locks: make(map[string]*sync.Mutex)}
}

func (c *companyLocks) lock(companyID string) func() {
	c.mu.Lock()
	m, ok := c.locks[companyID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[companyID] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}
