package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// JobRepository tracks extraction jobs.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create inserts a new job row.
func (r *JobRepository) Create(ctx context.Context, job *entity.ExtractJob) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO extract_jobs (id, user_id, filename, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.UserID, job.Filename, job.Status, job.StartedAt)
	if err != nil {
		return common.NewAppError("DB_INSERT", "insert extract job", err)
	}
	return nil
}

// Update persists the job's mutable fields.
func (r *JobRepository) Update(ctx context.Context, job *entity.ExtractJob) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE extract_jobs
		SET doc_type = $2, institution = $3, strategy = $4, status = $5,
		    error_message = $6, ocr_text = $7, extracted_json = $8, finished_at = $9
		WHERE id = $1`,
		job.ID, job.DocType, job.Institution, job.Strategy, job.Status,
		job.ErrorMessage, job.OCRText, job.ExtractedJSON, job.FinishedAt)
	if err != nil {
		return common.NewAppError("DB_UPDATE", "update extract job", err)
	}
	return nil
}

// ByID returns one job of the user, or nil when absent.
func (r *JobRepository) ByID(ctx context.Context, userID, jobID uuid.UUID) (*entity.ExtractJob, error) {
	var job entity.ExtractJob
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, filename, doc_type, institution, strategy, status,
		       error_message, ocr_text, extracted_json, started_at, finished_at
		FROM extract_jobs
		WHERE id = $1 AND user_id = $2`,
		jobID, userID).
		Scan(&job.ID, &job.UserID, &job.Filename, &job.DocType, &job.Institution,
			&job.Strategy, &job.Status, &job.ErrorMessage, &job.OCRText,
			&job.ExtractedJSON, &job.StartedAt, &job.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("DB_SCAN", "scan extract job", err)
	}
	return &job, nil
}

// ListByUser returns the user's jobs, newest first, optionally filtered to a
// status.
func (r *JobRepository) ListByUser(ctx context.Context, userID uuid.UUID, status constants.JobStatus, limit int) ([]entity.ExtractJob, error) {
	query := `
		SELECT id, user_id, filename, doc_type, institution, strategy, status,
		       error_message, ocr_text, extracted_json, started_at, finished_at
		FROM extract_jobs
		WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list extract jobs", err)
	}
	defer rows.Close()

	var out []entity.ExtractJob
	for rows.Next() {
		var job entity.ExtractJob
		if err := rows.Scan(&job.ID, &job.UserID, &job.Filename, &job.DocType,
			&job.Institution, &job.Strategy, &job.Status, &job.ErrorMessage,
			&job.OCRText, &job.ExtractedJSON, &job.StartedAt, &job.FinishedAt); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan extract job", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}
