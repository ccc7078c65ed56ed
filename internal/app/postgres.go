package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchthread-sync/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	dbPingTimeout = 5 * time.Second

	// Sync state statements are short upserts; anything longer is cut.
	maxTracedStatement = 512
)

// stateDSN is DB_URL prepared for both the state store and the migrator.
type stateDSN struct {
	// conn is handed to lib/pq.
	conn string
	// name labels spans and the startup log line.
	name string
	// isURL is false for key=value DSNs, which golang-migrate cannot take.
	isURL bool
}

func parseStateDSN(raw string, disablePreparedBinary bool) (stateDSN, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return stateDSN{}, errors.New("DB_URL is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return stateDSN{conn: raw, name: keywordValue(raw, "dbname")}, nil
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return stateDSN{}, fmt.Errorf("DB_URL scheme %q is not postgres", parsed.Scheme)
	}

	if disablePreparedBinary {
		query := parsed.Query()
		if query.Get("disable_prepared_binary_result") == "" {
			query.Set("disable_prepared_binary_result", "yes")
			parsed.RawQuery = query.Encode()
		}
	}
	return stateDSN{
		conn:  parsed.String(),
		name:  strings.TrimPrefix(parsed.Path, "/"),
		isURL: true,
	}, nil
}

func keywordValue(dsn, key string) string {
	for _, token := range strings.Fields(dsn) {
		value, ok := strings.CutPrefix(token, key+"=")
		if !ok {
			continue
		}
		return strings.Trim(value, `"'`)
	}
	return ""
}

// traceStatement collapses whitespace so multi-line named upserts read as one
// line in span attributes.
func traceStatement(query string) string {
	collapsed := strings.Join(strings.Fields(query), " ")
	if len(collapsed) <= maxTracedStatement {
		return collapsed
	}
	return collapsed[:maxTracedStatement] + "..."
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, stateDSN, error) {
	dsn, err := parseStateDSN(cfg.DBURL, cfg.DBDisablePreparedBinary)
	if err != nil {
		return nil, stateDSN{}, err
	}

	db, err := otelsqlx.Open("postgres", dsn.conn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dsn.name),
		otelsql.WithQueryFormatter(traceStatement),
	)
	if err != nil {
		return nil, stateDSN{}, fmt.Errorf("open postgres: %w", err)
	}
	// One writer per run; a couple of connections is plenty.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, stateDSN{}, fmt.Errorf("ping postgres db=%s: %w", dsn.name, err)
	}
	return db, dsn, nil
}
