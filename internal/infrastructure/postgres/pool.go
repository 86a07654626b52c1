package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"sort"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/zatca-api/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewPool crea el pool de conexiones PostgreSQL. Si DATABASE_URL está definido se usa tal cual;
// el dial prefiere IPv4 porque los contenedores suelen no tener ruta IPv6.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.ConnConfig.DialFunc = dialPreferIPv4
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal en todas las conexiones del pool
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate aplica en orden los scripts embebidos. Son idempotentes (IF NOT EXISTS).
func Migrate(ctx context.Context, q Querier) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("listar migraciones: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("leer %s: %w", name, err)
		}
		if _, err := q.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("migración %s: %w", name, err)
		}
	}
	return nil
}

func dialPreferIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ipv4, err := resolveIPv4(ctx, host); err == nil {
		return dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ipv4, port))
	}
	return dialer.DialContext(ctx, network, addr)
}

// resolveIPv4 devuelve la primera dirección IPv4 del host (o el host si ya es IPv4).
func resolveIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", fmt.Errorf("%s es IPv6", host)
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("%s no tiene IPv4", host)
	}
	return ips[0].String(), nil
}

// redactedURL oculta la contraseña del DSN para los logs.
func redactedURL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "postgres://***"
	}
	return u.Redacted()
}

// Describe DSN sin contraseña, para el log de arranque.
func Describe(cfg config.DBConfig) string {
	return redactedURL(cfg.ConnectionString())
}
