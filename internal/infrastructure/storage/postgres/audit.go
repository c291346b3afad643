package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/audit"
)

// CompressionAlgo specifies the compression applied to a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// journalRow is the adjustment_log row shape.
type journalRow struct {
	ID                id.ID           `db:"id"`
	Kind              string          `db:"kind"`
	MaterialID        id.ID           `db:"material_id"`
	Before            int64           `db:"before_quantity"`
	After             int64           `db:"after_quantity"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// Journal persists adjustment entries to the adjustment_log table.
// Payloads above the threshold are stored zstd-compressed.
type Journal struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewJournal creates the journal recorder.
func NewJournal(txManager *TxManager) (*Journal, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Journal{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record inserts one journal entry. The insert joins any transaction
// already carried by ctx so the journal row commits or rolls back with
// the quantity mutation it describes.
func (j *Journal) Record(ctx context.Context, entry audit.Entry) error {
	row := journalRow{
		ID:              entry.ID,
		Kind:            string(entry.Kind),
		MaterialID:      entry.MaterialID,
		Before:          int64(entry.Before),
		After:           int64(entry.After),
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.CreatedAt,
	}

	if id.IsNil(row.ID) {
		row.ID = id.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if len(entry.Payload) > 0 {
		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		row.Payload = payload
	}

	if len(row.Payload) > j.compressThreshold {
		row.PayloadCompressed = j.encoder.EncodeAll(row.Payload, nil)
		row.Payload = nil
		row.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO adjustment_log (
			id, kind, material_id, before_quantity, after_quantity,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := j.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		row.ID, row.Kind, row.MaterialID, row.Before, row.After,
		row.Payload, row.PayloadCompressed, row.CompressionAlgo,
		row.CreatedAt,
	)

	return err
}

// MaterialHistory returns the newest journal entries for a material.
func (j *Journal) MaterialHistory(ctx context.Context, materialID id.ID, limit int) ([]audit.Entry, error) {
	sql := `
		SELECT id, kind, material_id, before_quantity, after_quantity,
		       payload, payload_compressed, compression_algo, created_at
		FROM adjustment_log
		WHERE material_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := j.txManager.GetQuerier(ctx).Query(ctx, sql, materialID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var r journalRow
		err := rows.Scan(
			&r.ID, &r.Kind, &r.MaterialID, &r.Before, &r.After,
			&r.Payload, &r.PayloadCompressed, &r.CompressionAlgo,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if r.CompressionAlgo == CompressionZstd && len(r.PayloadCompressed) > 0 {
			r.Payload, err = j.decoder.DecodeAll(r.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress payload: %w", err)
			}
			r.PayloadCompressed = nil
		}

		entry := audit.Entry{
			ID:         r.ID,
			Kind:       audit.Kind(r.Kind),
			MaterialID: r.MaterialID,
			Before:     types.Quantity(r.Before),
			After:      types.Quantity(r.After),
			CreatedAt:  r.CreatedAt,
		}
		if len(r.Payload) > 0 {
			if err := json.Unmarshal(r.Payload, &entry.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

var _ audit.Recorder = (*Journal)(nil)
