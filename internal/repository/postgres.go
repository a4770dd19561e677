package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// PostgresResultRepository stores results in Postgres through a pgx pool.
type PostgresResultRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresResultRepository takes ownership of pool and creates the results
// table when missing.
func NewPostgresResultRepository(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PostgresResultRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ddl := fmt.Sprintf(createResultsTable, "DOUBLE PRECISION", "JSONB", "TIMESTAMPTZ", "TIMESTAMPTZ")
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, common.NewDatabaseError("create results table", err)
	}
	return &PostgresResultRepository{pool: pool, logger: logger}, nil
}

func (r *PostgresResultRepository) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Result.DocumentID == "" {
		return common.NewInvalidInputError("record needs a document id")
	}
	meta, err := encodeMetadata(rec.Result.Metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res := rec.Result
	_, err = r.pool.Exec(ctx, rebind(upsertResult),
		res.DocumentID, rec.Filename, string(res.ExtractionMethod), yearOf(res.Metadata),
		res.Metadata.ExtractionConfidence, rec.WordCount, rec.ContentLength,
		res.TruncatedContent, meta, now, now,
	)
	if err != nil {
		r.logger.Error("store.save.failed", "document_id", res.DocumentID, "error", err)
		return common.NewDatabaseError("save result", err)
	}
	r.logger.Debug("store.save", "document_id", res.DocumentID, "method", res.ExtractionMethod)
	return nil
}

func (r *PostgresResultRepository) Get(ctx context.Context, documentID string) (*Record, error) {
	row := r.pool.QueryRow(ctx, rebind(selectResults+"\nWHERE document_id = ?"), documentID)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFoundError("result " + documentID)
	}
	if err != nil {
		return nil, common.NewDatabaseError("get result", err)
	}
	return rec, nil
}

func (r *PostgresResultRepository) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	query, args := listQuery(filter)
	rows, err := r.pool.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, common.NewDatabaseError("list results", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, common.NewDatabaseError("scan result", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewDatabaseError("list results", err)
	}
	return out, nil
}

func (r *PostgresResultRepository) Ping(ctx context.Context) error {
	return HealthCheck(ctx, r.pool, time.Second, r.logger)
}

func (r *PostgresResultRepository) Close() error {
	r.logger.Info("closing database connections")
	r.pool.Close()
	return nil
}

func scanPostgres(s rowScanner) (*Record, error) {
	var (
		rec    Record
		method string
		meta   []byte
	)
	err := s.Scan(
		&rec.Result.DocumentID, &rec.Filename, &method, &rec.Result.Metadata.ExtractionConfidence,
		&rec.WordCount, &rec.ContentLength, &rec.Result.TruncatedContent, &meta,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fillRecord(&rec, method, meta); err != nil {
		return nil, err
	}
	return &rec, nil
}
