package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// timestampLayout has a fixed width so stored text sorts chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteResultRepository stores results in a local SQLite file.
type SQLiteResultRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens dsn and creates the results table when missing.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteResultRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.NewDatabaseError("open sqlite", err)
	}
	// one writer at a time; also keeps in-memory databases on one connection
	db.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(createResultsTable, "REAL", "TEXT", "TEXT", "TEXT")
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, common.NewDatabaseError("create results table", err)
	}
	logger.Info("store.sqlite.open", "dsn", dsn)
	return &SQLiteResultRepository{db: db, logger: logger, now: time.Now}, nil
}

func (r *SQLiteResultRepository) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Result.DocumentID == "" {
		return common.NewInvalidInputError("record needs a document id")
	}
	meta, err := encodeMetadata(rec.Result.Metadata)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	res := rec.Result
	_, err = r.db.ExecContext(ctx, upsertResult,
		res.DocumentID, rec.Filename, string(res.ExtractionMethod), yearOf(res.Metadata),
		res.Metadata.ExtractionConfidence, rec.WordCount, rec.ContentLength,
		res.TruncatedContent, string(meta),
		now.Format(timestampLayout), now.Format(timestampLayout),
	)
	if err != nil {
		r.logger.Error("store.save.failed", "document_id", res.DocumentID, "error", err)
		return common.NewDatabaseError("save result", err)
	}
	r.logger.Debug("store.save", "document_id", res.DocumentID, "method", res.ExtractionMethod)
	return nil
}

func (r *SQLiteResultRepository) Get(ctx context.Context, documentID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, selectResults+"\nWHERE document_id = ?", documentID)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewNotFoundError("result " + documentID)
	}
	if err != nil {
		return nil, common.NewDatabaseError("get result", err)
	}
	return rec, nil
}

func (r *SQLiteResultRepository) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	query, args := listQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewDatabaseError("list results", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanSQLite(rows)
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

func (r *SQLiteResultRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteResultRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s rowScanner) (*Record, error) {
	var (
		rec                  Record
		method, meta         string
		createdAt, updatedAt string
	)
	err := s.Scan(
		&rec.Result.DocumentID, &rec.Filename, &method, &rec.Result.Metadata.ExtractionConfidence,
		&rec.WordCount, &rec.ContentLength, &rec.Result.TruncatedContent, &meta, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fillRecord(&rec, method, []byte(meta)); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}
