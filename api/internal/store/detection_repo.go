package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"damage-eval/api/internal/damage"
)

type DetectionRepo struct{ DB *sql.DB }

func NewDetectionRepo(db *sql.DB) *DetectionRepo { return &DetectionRepo{DB: db} }

// Record сохраняет одну детекцию (аудит). ChatID = 0 пишем как NULL.
func (r *DetectionRepo) Record(ctx context.Context, rec damage.Record) error {
	js, err := json.Marshal(rec.Result)
	if err != nil {
		return err
	}
	const q = `
insert into detections (
  id, created_at, channel, chat_id, requested_model,
  model, source, damages_count, error, result_json
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = r.DB.ExecContext(ctx, q,
		rec.ID, rec.CreatedAt, rec.Channel, nullInt64(rec.ChatID), rec.RequestedModel,
		rec.Result.Model, string(rec.Result.Source), len(rec.Result.Damages), rec.Result.Error, js,
	)
	return err
}

// ListByChat: последние детекции чата, свежие первыми.
func (r *DetectionRepo) ListByChat(ctx context.Context, chatID int64, limit int) ([]damage.Record, error) {
	if limit <= 0 {
		limit = 5
	}
	const q = `
select id, created_at, channel, coalesce(chat_id,0), coalesce(requested_model,''), result_json
from detections
where chat_id = $1
order by created_at desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []damage.Record
	for rows.Next() {
		var (
			rec damage.Record
			js  []byte
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Channel, &rec.ChatID, &rec.RequestedModel, &js); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(js, &rec.Result); err != nil {
			// битая строка не должна ломать всю историю
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
