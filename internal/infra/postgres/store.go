// Package postgres implements the DocumentStore on PostgreSQL with gorm.
// Documents and records are stored as jsonb; filters compile to jsonb
// operators so numbers, strings and booleans compare with their JSON types.
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/hotelops/hotelscore/internal/domain"
)

type documentRow struct {
	Key       string         `gorm:"column:key;primaryKey"`
	Body      datatypes.JSON `gorm:"column:body;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (documentRow) TableName() string { return "scoring_documents" }

type recordRow struct {
	ID         string         `gorm:"column:id;primaryKey"`
	Collection string         `gorm:"column:collection;not null;index:idx_scoring_records_collection"`
	Body       datatypes.JSON `gorm:"column:body;type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;index"`
}

func (recordRow) TableName() string { return "scoring_records" }

// Store is a DocumentStore backed by PostgreSQL.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the two tables.
func Open(dsn string) (*Store, error) {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&documentRow{}, &recordRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ─── Documents ──────────────────────────────────────────────────────────────

// GetDocument retrieves a document by key. found is false if absent.
func (s *Store) GetDocument(ctx context.Context, key string) (domain.Document, bool, error) {
	if key == "" {
		return nil, false, domain.ErrInvalidKey
	}
	var row documentRow
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document %s: %w", key, err)
	}
	doc, err := decode(row.Body)
	if err != nil {
		return nil, false, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, true, nil
}

// SetDocument upserts a document. With merge the stored object is overlaid
// with doc's top-level fields in one statement (jsonb ||).
func (s *Store) SetDocument(ctx context.Context, key string, doc domain.Document, merge bool) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	now := time.Now()

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}
	if merge {
		onConflict.DoUpdates = clause.Assignments(map[string]any{
			"body":       gorm.Expr("scoring_documents.body || EXCLUDED.body"),
			"updated_at": now,
		})
	}
	row := documentRow{Key: key, Body: datatypes.JSON(raw), UpdatedAt: now}
	if err := s.db.WithContext(ctx).Clauses(onConflict).Create(&row).Error; err != nil {
		return fmt.Errorf("write document %s: %w", key, err)
	}
	return nil
}

// ─── Records ────────────────────────────────────────────────────────────────

// AppendRecord inserts an immutable record, assigning a UUID when the
// record carries no "id".
func (s *Store) AppendRecord(ctx context.Context, collection string, record domain.Document) (string, error) {
	if collection == "" {
		return "", domain.ErrInvalidKey
	}
	id, _ := record["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	raw, err := json.Marshal(record.Merge(domain.Document{"id": id}))
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	row := recordRow{ID: id, Collection: collection, Body: datatypes.JSON(raw), CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("append %s record: %w", collection, err)
	}
	return id, nil
}

// QueryRecords returns the records of a collection matching every filter.
func (s *Store) QueryRecords(ctx context.Context, collection string, q domain.RecordQuery) ([]domain.Document, error) {
	conds, order, err := compileQuery(q)
	if err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Model(&recordRow{}).Where("collection = ?", collection)
	for _, c := range conds {
		tx = tx.Where(c.sql, c.args...)
	}
	tx = tx.Order(order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []recordRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s records: %w", collection, err)
	}
	docs := make([]domain.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := decode(r.Body)
		if err != nil {
			return nil, fmt.Errorf("decode %s record: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type condition struct {
	sql  string
	args []any
}

var jsonbOps = map[domain.FilterOp]string{
	domain.OpEq:  "=",
	domain.OpNe:  "<>",
	domain.OpLt:  "<",
	domain.OpLte: "<=",
	domain.OpGt:  ">",
	domain.OpGte: ">=",
}

// compileQuery turns filters into jsonb conditions. Field names are
// validated identifiers, so they are inlined as quoted literals.
func compileQuery(q domain.RecordQuery) ([]condition, string, error) {
	conds := make([]condition, 0, len(q.Filters))
	for _, f := range q.Filters {
		if !domain.ValidFieldName(f.Field) {
			return nil, "", fmt.Errorf("%w: field %q", domain.ErrInvalidFilter, f.Field)
		}
		path := "body -> '" + f.Field + "'"
		if f.Op == domain.OpArrayContains {
			raw, err := json.Marshal([]any{f.Value})
			if err != nil {
				return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
			}
			conds = append(conds, condition{sql: path + " @> ?::jsonb", args: []any{string(raw)}})
			continue
		}
		op, ok := jsonbOps[f.Op]
		if !ok {
			return nil, "", fmt.Errorf("%w: op %q", domain.ErrInvalidFilter, f.Op)
		}
		raw, err := json.Marshal(jsonValue(f.Value))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
		}
		conds = append(conds, condition{sql: path + " " + op + " ?::jsonb", args: []any{string(raw)}})
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	var order strings.Builder
	if q.OrderBy != "" {
		if !domain.ValidFieldName(q.OrderBy) {
			return nil, "", fmt.Errorf("%w: order by %q", domain.ErrInvalidFilter, q.OrderBy)
		}
		order.WriteString("body -> '" + q.OrderBy + "' " + dir + ", ")
	}
	order.WriteString("created_at " + dir + ", id " + dir)
	return conds, order.String(), nil
}

// jsonValue maps filter values onto what the stored JSON holds.
func jsonValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UnixMilli()
	}
	return v
}

func decode(raw []byte) (domain.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc domain.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
