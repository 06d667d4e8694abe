// Package context loads the static `context` document the expression
// evaluator's `context` namespace resolves against (§4.7b). It supports two
// forms: a local JSON file, or a `postgres://...#<query>` DSN+query that
// runs once and decodes its first row's first column as JSON. It is
// grounded in the teacher's PostgresReader (internal/io/postgres.go) —
// connection, query, error wrapping, and credential masking on log lines —
// generalized from "read every row as a record" to "decode exactly one
// already-JSON value".
package context

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"transform-rules/internal/jsonval"
	"transform-rules/internal/logging"
	"transform-rules/internal/util"
)

const defaultTimeout = 30 * time.Second

// pgxConnectFunc allows overriding pgx.Connect in tests.
var pgxConnectFunc = pgx.Connect

// Load resolves spec into a context document. spec is either a local file
// path or a `postgres://...#<query>` string; the split happens on the last
// '#', since a Postgres DSN itself never contains one.
func Load(spec string) (any, error) {
	if dsn, query, ok := splitPostgresSpec(spec); ok {
		return loadFromPostgres(dsn, query)
	}
	return loadFromFile(spec)
}

func splitPostgresSpec(spec string) (dsn, query string, ok bool) {
	if !strings.HasPrefix(spec, "postgres://") && !strings.HasPrefix(spec, "postgresql://") {
		return "", "", false
	}
	idx := strings.LastIndexByte(spec, '#')
	if idx == -1 {
		return "", "", false
	}
	return spec[:idx], spec[idx+1:], true
}

func loadFromFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("context: failed to read %q: %w", path, err)
	}
	doc, err := jsonval.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("context: failed to parse JSON from %q: %w", path, err)
	}
	return doc, nil
}

func loadFromPostgres(dsn, query string) (any, error) {
	if query == "" {
		return nil, errors.New("context: postgres context spec is missing a query after '#'")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	expanded := util.ExpandEnvUniversal(dsn)
	masked := util.MaskCredentials(expanded)

	conn, err := pgxConnectFunc(ctx, expanded)
	if err != nil {
		logging.Logf(logging.Error, "context: failed to connect using %s", masked)
		return nil, fmt.Errorf("context: failed to connect to %s: %w", masked, err)
	}
	defer conn.Close(ctx)

	row := conn.QueryRow(ctx, query)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, fmt.Errorf("context: query against %s failed: %w", masked, err)
	}

	doc, err := jsonval.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("context: query result from %s was not valid JSON: %w", masked, err)
	}

	logging.Logf(logging.Debug, "context: loaded context document from %s", masked)
	return doc, nil
}
