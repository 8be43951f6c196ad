package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"farmapos/internal/core/id"
	"farmapos/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// compressThreshold is the payload size above which zstd kicks in.
// Checkout payloads with many lines can get large; small redemption
// payloads are stored as plain JSONB for queryability.
const compressThreshold = 10 * 1024

// AuditService persists audit entries, joining the caller's transaction
// when one is active so the trail commits or rolls back with the change
// it describes.
type AuditService struct {
	txManager *TxManager
	encoder   *zstd.Encoder
}

var _ audit.Recorder = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &AuditService{txManager: txManager, encoder: encoder}, nil
}

// Record implements audit.Recorder.
func (s *AuditService) Record(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	var (
		plain      []byte
		compressed []byte
		algo       = CompressionNone
	)
	if len(payload) > compressThreshold {
		compressed = s.encoder.EncodeAll(payload, nil)
		algo = CompressionZstd
	} else {
		plain = payload
	}

	querier := s.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, `
		INSERT INTO audit_log (id, entity_type, entity_id, action, actor, payload, payload_compressed, compression_algo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id.New(), entry.EntityType, entry.EntityID, entry.Action, entry.Actor,
		plain, compressed, algo, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
