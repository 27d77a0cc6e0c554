package model

import (
	"fmt"
	"time"
)

// Job types.
const (
	JobTypeMaintenance = "JOB"
	JobTypePartRequest = "PART_REQUEST"
)

// Job statuses.
const (
	JobPending  = "PENDING"
	JobApproved = "APPROVED"
	JobRejected = "REJECTED"
)

// Job is a maintenance work order or a request for parts from central.
type Job struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	SiteID       *int64     `json:"site_id,omitempty"`
	Vehicle      string     `json:"vehicle,omitempty"`
	Description  string     `json:"description,omitempty"`
	DocumentCode string     `json:"document_code,omitempty"`
	CreatedBy    *int64     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ApprovedBy   *int64     `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	Parts        []JobPart  `json:"parts"`

	// Joined fields (not always populated).
	SiteName string `json:"site_name,omitempty"`
}

// JobPart is a part requested or used by a job.
type JobPart struct {
	PartID   int64  `json:"part_id"`
	Quantity int    `json:"quantity"`
	PartName string `json:"part_name,omitempty"`
}

// MWRCode returns the material withdrawal request code for a part-request job.
func MWRCode(jobID int64) string {
	return fmt.Sprintf("MWR-%06d", jobID)
}

// UsageLog is a row of the legacy usage log. It duplicates stock_transactions
// in a flat form for existing reports and is not authoritative.
type UsageLog struct {
	ID       int64     `json:"id"`
	JobID    int64     `json:"job_id"`
	PartName string    `json:"part_name"`
	Quantity int       `json:"quantity"`
	SiteName string    `json:"site_name"`
	Vehicle  string    `json:"vehicle,omitempty"`
	UserName string    `json:"user_name,omitempty"`
	JobType  string    `json:"job_type"`
	UsedAt   time.Time `json:"used_at"`
}
