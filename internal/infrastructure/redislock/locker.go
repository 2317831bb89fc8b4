// Package redislock bloqueo distribuido por empresa para la generación de facturas.
package redislock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Licores-api/internal/application/billing"
	"github.com/jhoicas/Licores-api/internal/domain"
)

var _ billing.BatchLocker = (*Locker)(nil)

// releaseScript borra la clave solo si sigue siendo nuestra (otro proceso pudo tomarla al expirar el TTL).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// extendScript renueva el TTL solo si la clave sigue siendo nuestra.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Locker SET NX PX con token único por adquisición. Mientras el bloqueo está tomado se renueva cada ttl/3,
// así un lote largo no pierde la clave; el TTL solo acota la espera si el proceso muere.
type Locker struct {
	rdb      redis.UniversalClient
	ttl      time.Duration
	attempts int
	wait     time.Duration
	log      zerolog.Logger
}

// New ttl es el tiempo que la clave sobrevive a un proceso caído.
func New(rdb redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Locker{rdb: rdb, ttl: ttl, attempts: 3, wait: 100 * time.Millisecond, log: log}
}

// NewClient crea el cliente desde REDIS_URL y valida la conexión.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func key(companyID string) string {
	return "lock:billgen:" + companyID
}

// Lock intenta tomar el bloqueo unas pocas veces antes de devolver domain.ErrBatchLocked.
func (l *Locker) Lock(ctx context.Context, companyID string) (func(), error) {
	k := key(companyID)
	token := uuid.New().String()

	for i := 0; i < l.attempts; i++ {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", k, err)
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go l.keepAlive(k, token, stop, done)
			var once sync.Once
			return func() {
				once.Do(func() {
					close(stop)
					<-done
					l.release(k, token)
				})
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.wait):
		}
	}
	return nil, fmt.Errorf("empresa %s: %w", companyID, domain.ErrBatchLocked)
}

// keepAlive renueva el TTL hasta que se cierre stop o se pierda la clave.
func (l *Locker) keepAlive(k, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(l.ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			n, err := extendScript.Run(ctx, l.rdb, []string{k}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.log.Warn().Err(err).Str("key", k).Msg("no se pudo renovar el bloqueo redis")
				continue
			}
			if n == 0 {
				l.log.Error().Str("key", k).Msg("bloqueo redis perdido durante la generación")
				return
			}
		}
	}
}

func (l *Locker) release(k, token string) {
	// contexto propio: el de la petición puede estar cancelado
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{k}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", k).Msg("no se pudo liberar el bloqueo redis")
	}
}
