package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // queued for processing
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOCROK   JobStatus = "OCR_OK"  // stage 1 completed (text + entities extracted)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (transactions extracted)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)
