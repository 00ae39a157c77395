package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, job_type, folder_path, status, metadata_json, proposal_json, error_message, user_feedback, artist_hint, created_at, updated_at, started_at, completed_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           int64
		jobType      string
		folderPath   string
		statusStr    string
		metadata     sql.NullString
		proposal     sql.NullString
		errorMessage sql.NullString
		userFeedback sql.NullString
		artistHint   sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobType,
		&folderPath,
		&statusStr,
		&metadata,
		&proposal,
		&errorMessage,
		&userFeedback,
		&artistHint,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		Type:         JobType(jobType),
		FolderPath:   folderPath,
		Status:       Status(statusStr),
		MetadataJSON: metadata.String,
		ProposalJSON: proposal.String,
		ErrorMessage: errorMessage.String,
		UserFeedback: userFeedback.String,
		ArtistHint:   artistHint.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			job.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
