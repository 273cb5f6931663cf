package domain

import "time"

type ApproveContentRequest struct {
	Approved    bool       `json:"approved"`
	AutoPublish bool       `json:"auto_publish"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}
