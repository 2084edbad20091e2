// Pacote health expõe liveness e readiness com checagem das dependências externas.
package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("dependencia indisponivel")

// Dependency é uma checagem nomeada; Check nil significa dependência não configurada.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

func DatabaseDependency(db *sql.DB) Dependency {
	p := Dependency{Name: "postgres"}
	if db != nil {
		p.Check = db.PingContext
	}
	return p
}

func RedisDependency(client *redis.Client) Dependency {
	p := Dependency{Name: "redis"}
	if client != nil {
		p.Check = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return p
}

type Checker struct {
	deps    []Dependency
	timeout time.Duration
}

func NewChecker(deps ...Dependency) *Checker {
	return &Checker{deps: deps, timeout: 2 * time.Second}
}

// Check roda as dependências em ordem e para na primeira falha.
func (c *Checker) Check(ctx context.Context) error {
	name, err := c.run(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
	}
	return nil
}

func (c *Checker) run(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	for _, p := range c.deps {
		if p.Check == nil {
			continue
		}
		if err := p.Check(ctx); err != nil {
			return p.Name, err
		}
		// Contexto cancelado conta como falha mesmo que a checagem ignore o ctx.
		if err := ctx.Err(); err != nil {
			return p.Name, err
		}
	}
	return "", nil
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if name, err := c.run(r.Context()); err != nil {
			http.Error(w, name+" indisponivel", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
