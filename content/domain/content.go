package domain

import "time"

// Kind discriminates the three content shapes sharing one publish lifecycle.
type Kind string

const (
	KindPost     Kind = "post"
	KindArticle  Kind = "article"
	KindCarousel Kind = "carousel"
)

// PublishPriority is the declared order in which kinds are processed
// within a single publish run.
var PublishPriority = []Kind{KindPost, KindArticle, KindCarousel}

type PublishStatus string

const (
	StatusDraft     PublishStatus = "draft"
	StatusScheduled PublishStatus = "scheduled"
	StatusPublished PublishStatus = "published"
	StatusFailed    PublishStatus = "failed"
)

// Attachment is an optional generated image associated with a post or article.
// IncludeInPost is nullable: legacy rows without an explicit choice count as
// included.
type Attachment struct {
	ImageURL      string `json:"image_url"`
	AltText       string `json:"alt_text,omitempty"`
	IncludeInPost *bool  `json:"include_in_post,omitempty"`
}

// Included reports whether the attachment belongs in the publish payload.
func (a *Attachment) Included() bool {
	if a == nil || a.ImageURL == "" {
		return false
	}
	return a.IncludeInPost == nil || *a.IncludeInPost
}

// Item is one publishable content row. Posts carry a plain-text Body,
// articles an HTML Body that is reformatted at publish time, carousels a
// caption Body plus a pre-rendered document.
type Item struct {
	ID              string     `json:"id"`
	Kind            Kind       `json:"kind"`
	GenerationRunID *string    `json:"generation_run_id,omitempty"`
	OwnerID         *string    `json:"owner_id,omitempty"` // resolved through the generation run
	Title           string     `json:"title,omitempty"`
	Body            string     `json:"body"`

	Approved    bool       `json:"approved"`
	AutoPublish bool       `json:"auto_publish"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	ExternalPostID      *string    `json:"external_post_id,omitempty"`
	ExternalPublishedAt *time.Time `json:"external_published_at,omitempty"`
	PublishError        *string    `json:"publish_error,omitempty"`
	PublishClaimedAt    *time.Time `json:"-"`
	Status              PublishStatus `json:"status"`

	Image       *Attachment `json:"image,omitempty"`
	DocumentURL *string     `json:"document_url,omitempty"` // carousels only

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationRun is the persisted output of the (external) generation
// pipeline. The engine only reads it to attribute content to an owner.
type GenerationRun struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SourceTitle string    `json:"source_title,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
