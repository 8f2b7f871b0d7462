package model

import (
	"github.com/google/uuid"
)

type GroupStatus string

const (
	GroupGrouped        GroupStatus = "grouped"
	GroupAlreadyGrouped GroupStatus = "already_grouped"
	GroupSkipped        GroupStatus = "skipped"
	GroupFailed         GroupStatus = "failed"
)

type GroupOutcome struct {
	VideoID    uuid.UUID   `json:"video_id"`
	Status     GroupStatus `json:"status"`
	BucketID   *uuid.UUID  `json:"bucket_id,omitempty"`
	LocationID *uuid.UUID  `json:"location_id,omitempty"`
	Date       string      `json:"date,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

type GroupBatchResult struct {
	GroupedCount       int            `json:"grouped_count"`
	Errors             []string       `json:"errors"`
	RemainingUngrouped int64          `json:"remaining_ungrouped"`
	Outcomes           []GroupOutcome `json:"outcomes"`
}

type VerifyStatus string

const (
	VerifyAlreadyCorrect VerifyStatus = "already_correct"
	VerifyMismatch       VerifyStatus = "mismatch"
	VerifySkipped        VerifyStatus = "skipped"
)

type GroupingCheck struct {
	VideoID         uuid.UUID    `json:"video_id"`
	Status          VerifyStatus `json:"status"`
	Reason          string       `json:"reason,omitempty"`
	CurrentBucketID *uuid.UUID   `json:"current_bucket_id,omitempty"`
	ExpectedBucket  *uuid.UUID   `json:"expected_bucket_id,omitempty"`
	LocationID      *uuid.UUID   `json:"location_id,omitempty"`
	Date            string       `json:"date,omitempty"`
}
