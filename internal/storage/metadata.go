package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anshulg/speakersplit/internal/types"
)

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB creates a new metadata database
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		request_name TEXT NOT NULL,
		source_url TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		speaker_count INTEGER,
		part_count INTEGER,
		archive_path TEXT,
		gdrive_url TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveJob records the final state of a processed job.
func (mdb *MetadataDB) SaveJob(info types.JobInfo) error {
	query := `
	INSERT INTO jobs (job_id, request_name, source_url, status, error, speaker_count, part_count, archive_path, gdrive_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query, info.ID, info.RequestName, info.SourceURL, info.Status,
		info.Error, info.SpeakerCount, info.PartCount, info.ArchivePath, info.DriveURL,
		info.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save job metadata: %v", err)
	}

	return nil
}

// GetJob retrieves job metadata by job ID.
func (mdb *MetadataDB) GetJob(jobID string) (*types.JobInfo, error) {
	query := `
	SELECT job_id, request_name, source_url, status, error, speaker_count, part_count, archive_path, gdrive_url, created_at
	FROM jobs WHERE job_id = ?
	`

	var (
		info      types.JobInfo
		errMsg    sql.NullString
		archive   sql.NullString
		driveURL  sql.NullString
		createdAt time.Time
	)

	row := mdb.db.QueryRow(query, jobID)
	err := row.Scan(&info.ID, &info.RequestName, &info.SourceURL, &info.Status,
		&errMsg, &info.SpeakerCount, &info.PartCount, &archive, &driveURL, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %v", err)
	}

	info.Error = errMsg.String
	info.ArchivePath = archive.String
	info.DriveURL = driveURL.String
	info.CreatedAt = createdAt
	return &info, nil
}

// ListJobs returns the most recent jobs, newest first.
func (mdb *MetadataDB) ListJobs(limit int) ([]types.JobInfo, error) {
	query := `
	SELECT job_id, request_name, source_url, status, error, speaker_count, part_count, archive_path, gdrive_url, created_at
	FROM jobs ORDER BY created_at DESC LIMIT ?
	`

	rows, err := mdb.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %v", err)
	}
	defer rows.Close()

	var jobs []types.JobInfo

	for rows.Next() {
		var (
			info      types.JobInfo
			errMsg    sql.NullString
			archive   sql.NullString
			driveURL  sql.NullString
			createdAt time.Time
		)

		if err := rows.Scan(&info.ID, &info.RequestName, &info.SourceURL, &info.Status,
			&errMsg, &info.SpeakerCount, &info.PartCount, &archive, &driveURL, &createdAt); err != nil {
			continue
		}

		info.Error = errMsg.String
		info.ArchivePath = archive.String
		info.DriveURL = driveURL.String
		info.CreatedAt = createdAt
		jobs = append(jobs, info)
	}

	return jobs, rows.Err()
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
