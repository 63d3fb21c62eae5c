package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/hotelscore/internal/domain"
)

// ─── Documents ──────────────────────────────────────────────────────────────

// GetDocument retrieves a document by key. found is false if absent.
func (d *DB) GetDocument(ctx context.Context, key string) (domain.Document, bool, error) {
	if key == "" {
		return nil, false, domain.ErrInvalidKey
	}
	var body string
	err := d.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document %s: %w", key, err)
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, false, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, true, nil
}

// SetDocument writes a document. With merge, top-level fields are overlaid
// on the stored document inside a single transaction.
func (d *DB) SetDocument(ctx context.Context, key string, doc domain.Document, merge bool) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if merge {
		var body string
		err := tx.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return fmt.Errorf("read for merge %s: %w", key, err)
		default:
			existing, err := decodeDocument(body)
			if err != nil {
				return fmt.Errorf("decode document %s: %w", key, err)
			}
			doc = existing.Merge(doc)
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at`,
		key, string(raw), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write document %s: %w", key, err)
	}
	return tx.Commit()
}

// ─── Records ────────────────────────────────────────────────────────────────

// AppendRecord inserts an immutable record. The record's "id" field is used
// when it is a non-empty string, otherwise a UUID is assigned.
func (d *DB) AppendRecord(ctx context.Context, collection string, record domain.Document) (string, error) {
	if collection == "" {
		return "", domain.ErrInvalidKey
	}
	id, _ := record["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	record = record.Merge(domain.Document{"id": id})

	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO records (id, collection, body, created_at) VALUES (?, ?, ?, ?)`,
		id, collection, string(raw), time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("append %s record: %w", collection, err)
	}
	return id, nil
}

// QueryRecords returns the records of a collection matching every filter.
// Filters compare top-level JSON fields via json_extract.
func (d *DB) QueryRecords(ctx context.Context, collection string, q domain.RecordQuery) ([]domain.Document, error) {
	query, args, err := buildRecordQuery(collection, q)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s records: %w", collection, err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, fmt.Errorf("decode %s record: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

var sqlOps = map[domain.FilterOp]string{
	domain.OpEq:  "=",
	domain.OpNe:  "!=",
	domain.OpLt:  "<",
	domain.OpLte: "<=",
	domain.OpGt:  ">",
	domain.OpGte: ">=",
}

func buildRecordQuery(collection string, q domain.RecordQuery) (string, []any, error) {
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT body FROM records WHERE collection = ?`)

	for _, f := range q.Filters {
		if !domain.ValidFieldName(f.Field) {
			return "", nil, fmt.Errorf("%w: field %q", domain.ErrInvalidFilter, f.Field)
		}
		path := "$." + f.Field
		if f.Op == domain.OpArrayContains {
			sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(records.body, ?) WHERE json_each.value = ?)`)
			args = append(args, path, sqlValue(f.Value))
			continue
		}
		op, ok := sqlOps[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: op %q", domain.ErrInvalidFilter, f.Op)
		}
		sb.WriteString(` AND json_extract(body, ?) ` + op + ` ?`)
		args = append(args, path, sqlValue(f.Value))
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	if q.OrderBy != "" {
		if !domain.ValidFieldName(q.OrderBy) {
			return "", nil, fmt.Errorf("%w: order by %q", domain.ErrInvalidFilter, q.OrderBy)
		}
		sb.WriteString(` ORDER BY json_extract(body, ?) ` + dir + `, created_at ` + dir)
		args = append(args, "$."+q.OrderBy)
	} else {
		sb.WriteString(` ORDER BY created_at ` + dir + `, rowid ` + dir)
	}

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}
	return sb.String(), args, nil
}

// sqlValue converts a filter value into what json_extract compares equal to.
func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case time.Time:
		return t.UnixMilli()
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}

func decodeDocument(body string) (domain.Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var doc domain.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
