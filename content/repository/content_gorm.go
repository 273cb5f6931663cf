package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/draftcast/draftcast/content/domain"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type postModel struct {
	ID                  string     `gorm:"primaryKey;column:id"`
	GenerationRunID     *string    `gorm:"column:generation_run_id;index"`
	Body                string     `gorm:"column:body;not null"`
	Approved            bool       `gorm:"column:approved;default:false;index"`
	AutoPublish         bool       `gorm:"column:auto_publish;default:false;index"`
	ScheduledAt         *time.Time `gorm:"column:scheduled_at;index"`
	ExternalPostID      *string    `gorm:"column:external_post_id"`
	ExternalPublishedAt *time.Time `gorm:"column:external_published_at"`
	PublishError        *string    `gorm:"column:publish_error"`
	PublishClaimedAt    *time.Time `gorm:"column:publish_claimed_at"`
	Status              string     `gorm:"column:status;default:'draft';index"`
	ImageURL            *string    `gorm:"column:image_url"`
	ImageAlt            *string    `gorm:"column:image_alt"`
	IncludeImage        *bool      `gorm:"column:include_image"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;not null"`
}

func (postModel) TableName() string { return "posts" }

type articleModel struct {
	ID                  string     `gorm:"primaryKey;column:id"`
	GenerationRunID     *string    `gorm:"column:generation_run_id;index"`
	Title               string     `gorm:"column:title;not null"`
	Body                string     `gorm:"column:body;not null"` // editor HTML, formatted at publish time
	Approved            bool       `gorm:"column:approved;default:false;index"`
	AutoPublish         bool       `gorm:"column:auto_publish;default:false;index"`
	ScheduledAt         *time.Time `gorm:"column:scheduled_at;index"`
	ExternalPostID      *string    `gorm:"column:external_post_id"`
	ExternalPublishedAt *time.Time `gorm:"column:external_published_at"`
	PublishError        *string    `gorm:"column:publish_error"`
	PublishClaimedAt    *time.Time `gorm:"column:publish_claimed_at"`
	Status              string     `gorm:"column:status;default:'draft';index"`
	ImageURL            *string    `gorm:"column:image_url"`
	ImageAlt            *string    `gorm:"column:image_alt"`
	IncludeImage        *bool      `gorm:"column:include_image"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;not null"`
}

func (articleModel) TableName() string { return "articles" }

type carouselModel struct {
	ID                  string     `gorm:"primaryKey;column:id"`
	GenerationRunID     *string    `gorm:"column:generation_run_id;index"`
	Title               string     `gorm:"column:title;not null"`
	Body                string     `gorm:"column:body;not null"` // caption
	DocumentURL         *string    `gorm:"column:document_url"`  // pre-rendered PDF artifact
	Approved            bool       `gorm:"column:approved;default:false;index"`
	AutoPublish         bool       `gorm:"column:auto_publish;default:false;index"`
	ScheduledAt         *time.Time `gorm:"column:scheduled_at;index"`
	ExternalPostID      *string    `gorm:"column:external_post_id"`
	ExternalPublishedAt *time.Time `gorm:"column:external_published_at"`
	PublishError        *string    `gorm:"column:publish_error"`
	PublishClaimedAt    *time.Time `gorm:"column:publish_claimed_at"`
	Status              string     `gorm:"column:status;default:'draft';index"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;not null"`
}

func (carouselModel) TableName() string { return "carousels" }

type generationRunModel struct {
	ID          string    `gorm:"primaryKey;column:id"`
	UserID      string    `gorm:"column:user_id;not null;index"`
	SourceTitle string    `gorm:"column:source_title"`
	Status      string    `gorm:"column:status;default:'completed'"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (generationRunModel) TableName() string { return "generation_runs" }

// --- Repository Implementation ---

type ContentGormRepository struct {
	db *gorm.DB
}

func NewContentGormRepository(db *gorm.DB) *ContentGormRepository {
	return &ContentGormRepository{db: db}
}

func (r *ContentGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&postModel{},
		&articleModel{},
		&carouselModel{},
		&generationRunModel{},
	)
}

func tableFor(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindPost:
		return "posts", nil
	case domain.KindArticle:
		return "articles", nil
	case domain.KindCarousel:
		return "carousels", nil
	default:
		return "", fmt.Errorf("unknown content kind: %s", kind)
	}
}

const dueCondition = "approved = ? AND auto_publish = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ? AND external_post_id IS NULL AND status <> ?"

func (r *ContentGormRepository) SelectDue(ctx context.Context, kind domain.Kind, now time.Time) ([]domain.Item, error) {
	var items []domain.Item

	switch kind {
	case domain.KindPost:
		var models []postModel
		err := r.db.WithContext(ctx).
			Where(dueCondition, true, true, now, domain.StatusFailed).
			Order("scheduled_at ASC, id ASC").
			Find(&models).Error
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			items = append(items, fromPostModel(m))
		}
	case domain.KindArticle:
		var models []articleModel
		err := r.db.WithContext(ctx).
			Where(dueCondition, true, true, now, domain.StatusFailed).
			Order("scheduled_at ASC, id ASC").
			Find(&models).Error
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			items = append(items, fromArticleModel(m))
		}
	case domain.KindCarousel:
		var models []carouselModel
		err := r.db.WithContext(ctx).
			Where(dueCondition, true, true, now, domain.StatusFailed).
			Order("scheduled_at ASC, id ASC").
			Find(&models).Error
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			items = append(items, fromCarouselModel(m))
		}
	default:
		return nil, fmt.Errorf("unknown content kind: %s", kind)
	}

	if err := r.resolveOwners(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// resolveOwners fills OwnerID from each item's generation run. Items with
// no run keep a nil owner, which the engine treats as a per-item failure.
func (r *ContentGormRepository) resolveOwners(ctx context.Context, items []domain.Item) error {
	runIDs := make([]string, 0, len(items))
	for _, it := range items {
		if it.GenerationRunID != nil {
			runIDs = append(runIDs, *it.GenerationRunID)
		}
	}
	if len(runIDs) == 0 {
		return nil
	}

	var runs []generationRunModel
	if err := r.db.WithContext(ctx).Where("id IN ?", runIDs).Find(&runs).Error; err != nil {
		return err
	}
	owners := make(map[string]string, len(runs))
	for _, run := range runs {
		owners[run.ID] = run.UserID
	}

	for i := range items {
		if items[i].GenerationRunID == nil {
			continue
		}
		if uid, ok := owners[*items[i].GenerationRunID]; ok && uid != "" {
			owner := uid
			items[i].OwnerID = &owner
		}
	}
	return nil
}

func (r *ContentGormRepository) ClaimForPublish(ctx context.Context, kind domain.Kind, id string, now time.Time, window time.Duration) (bool, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ? AND external_post_id IS NULL", id).
		Where("publish_claimed_at IS NULL OR publish_claimed_at < ?", now.Add(-window)).
		Updates(map[string]any{
			"publish_claimed_at": now,
			"updated_at":         now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ContentGormRepository) MarkPublished(ctx context.Context, kind domain.Kind, id, externalID string, publishedAt time.Time) error {
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ?", id).
		Updates(map[string]any{
			"external_post_id":      externalID,
			"external_published_at": publishedAt,
			"publish_error":         nil,
			"status":                string(domain.StatusPublished),
			"updated_at":            publishedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContentGormRepository) MarkPublishError(ctx context.Context, kind domain.Kind, id, message string) error {
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ?", id).
		Updates(map[string]any{
			"publish_error":      message,
			"publish_claimed_at": nil, // release the claim so the next run retries
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContentGormRepository) MarkFailed(ctx context.Context, kind domain.Kind, id, message string) error {
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ?", id).
		Updates(map[string]any{
			"publish_error":      message,
			"publish_claimed_at": nil,
			"status":             string(domain.StatusFailed),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContentGormRepository) List(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item

	var posts []postModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	for _, m := range posts {
		items = append(items, fromPostModel(m))
	}

	var articles []articleModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&articles).Error; err != nil {
		return nil, err
	}
	for _, m := range articles {
		items = append(items, fromArticleModel(m))
	}

	var carousels []carouselModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&carousels).Error; err != nil {
		return nil, err
	}
	for _, m := range carousels {
		items = append(items, fromCarouselModel(m))
	}

	return items, nil
}

func (r *ContentGormRepository) Get(ctx context.Context, kind domain.Kind, id string) (domain.Item, error) {
	switch kind {
	case domain.KindPost:
		var m postModel
		if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
			return domain.Item{}, err
		}
		return fromPostModel(m), nil
	case domain.KindArticle:
		var m articleModel
		if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
			return domain.Item{}, err
		}
		return fromArticleModel(m), nil
	case domain.KindCarousel:
		var m carouselModel
		if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
			return domain.Item{}, err
		}
		return fromCarouselModel(m), nil
	default:
		return domain.Item{}, fmt.Errorf("unknown content kind: %s", kind)
	}
}

func (r *ContentGormRepository) Create(ctx context.Context, item domain.Item) error {
	switch item.Kind {
	case domain.KindPost:
		m := toPostModel(item)
		return r.db.WithContext(ctx).Create(&m).Error
	case domain.KindArticle:
		m := toArticleModel(item)
		return r.db.WithContext(ctx).Create(&m).Error
	case domain.KindCarousel:
		m := toCarouselModel(item)
		return r.db.WithContext(ctx).Create(&m).Error
	default:
		return fmt.Errorf("unknown content kind: %s", item.Kind)
	}
}

func (r *ContentGormRepository) SetApproval(ctx context.Context, kind domain.Kind, id string, approved, autoPublish bool, scheduledAt *time.Time) error {
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	status := domain.StatusDraft
	if approved {
		status = domain.StatusScheduled
	}
	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ?", id).
		Updates(map[string]any{
			"approved":     approved,
			"auto_publish": autoPublish,
			"scheduled_at": scheduledAt,
			"status":       string(status),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContentGormRepository) SetAutoPublish(ctx context.Context, kind domain.Kind, id string, enabled bool) error {
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ?", id).
		Updates(map[string]any{
			"auto_publish": enabled,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContentGormRepository) CreateRun(ctx context.Context, run domain.GenerationRun) error {
	m := generationRunModel{
		ID:          run.ID,
		UserID:      run.UserID,
		SourceTitle: run.SourceTitle,
		Status:      run.Status,
		CreatedAt:   run.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

// --- Converters ---

func attachmentFrom(url, alt *string, include *bool) *domain.Attachment {
	if url == nil || *url == "" {
		return nil
	}
	att := &domain.Attachment{ImageURL: *url, IncludeInPost: include}
	if alt != nil {
		att.AltText = *alt
	}
	return att
}

func fromPostModel(m postModel) domain.Item {
	return domain.Item{
		ID:                  m.ID,
		Kind:                domain.KindPost,
		GenerationRunID:     m.GenerationRunID,
		Body:                m.Body,
		Approved:            m.Approved,
		AutoPublish:         m.AutoPublish,
		ScheduledAt:         m.ScheduledAt,
		ExternalPostID:      m.ExternalPostID,
		ExternalPublishedAt: m.ExternalPublishedAt,
		PublishError:        m.PublishError,
		PublishClaimedAt:    m.PublishClaimedAt,
		Status:              domain.PublishStatus(m.Status),
		Image:               attachmentFrom(m.ImageURL, m.ImageAlt, m.IncludeImage),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func fromArticleModel(m articleModel) domain.Item {
	item := fromPostModel(postModel{
		ID:                  m.ID,
		GenerationRunID:     m.GenerationRunID,
		Body:                m.Body,
		Approved:            m.Approved,
		AutoPublish:         m.AutoPublish,
		ScheduledAt:         m.ScheduledAt,
		ExternalPostID:      m.ExternalPostID,
		ExternalPublishedAt: m.ExternalPublishedAt,
		PublishError:        m.PublishError,
		PublishClaimedAt:    m.PublishClaimedAt,
		Status:              m.Status,
		ImageURL:            m.ImageURL,
		ImageAlt:            m.ImageAlt,
		IncludeImage:        m.IncludeImage,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	})
	item.Kind = domain.KindArticle
	item.Title = m.Title
	return item
}

func fromCarouselModel(m carouselModel) domain.Item {
	return domain.Item{
		ID:                  m.ID,
		Kind:                domain.KindCarousel,
		GenerationRunID:     m.GenerationRunID,
		Title:               m.Title,
		Body:                m.Body,
		DocumentURL:         m.DocumentURL,
		Approved:            m.Approved,
		AutoPublish:         m.AutoPublish,
		ScheduledAt:         m.ScheduledAt,
		ExternalPostID:      m.ExternalPostID,
		ExternalPublishedAt: m.ExternalPublishedAt,
		PublishError:        m.PublishError,
		PublishClaimedAt:    m.PublishClaimedAt,
		Status:              domain.PublishStatus(m.Status),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func imageColumns(item domain.Item) (url, alt *string, include *bool) {
	if item.Image == nil {
		return nil, nil, nil
	}
	u := item.Image.ImageURL
	url = &u
	if item.Image.AltText != "" {
		a := item.Image.AltText
		alt = &a
	}
	return url, alt, item.Image.IncludeInPost
}

func toPostModel(item domain.Item) postModel {
	url, alt, include := imageColumns(item)
	return postModel{
		ID:                  item.ID,
		GenerationRunID:     item.GenerationRunID,
		Body:                item.Body,
		Approved:            item.Approved,
		AutoPublish:         item.AutoPublish,
		ScheduledAt:         item.ScheduledAt,
		ExternalPostID:      item.ExternalPostID,
		ExternalPublishedAt: item.ExternalPublishedAt,
		PublishError:        item.PublishError,
		PublishClaimedAt:    item.PublishClaimedAt,
		Status:              string(statusOrDraft(item.Status)),
		ImageURL:            url,
		ImageAlt:            alt,
		IncludeImage:        include,
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
}

func toArticleModel(item domain.Item) articleModel {
	p := toPostModel(item)
	return articleModel{
		ID:                  p.ID,
		GenerationRunID:     p.GenerationRunID,
		Title:               item.Title,
		Body:                p.Body,
		Approved:            p.Approved,
		AutoPublish:         p.AutoPublish,
		ScheduledAt:         p.ScheduledAt,
		ExternalPostID:      p.ExternalPostID,
		ExternalPublishedAt: p.ExternalPublishedAt,
		PublishError:        p.PublishError,
		PublishClaimedAt:    p.PublishClaimedAt,
		Status:              p.Status,
		ImageURL:            p.ImageURL,
		ImageAlt:            p.ImageAlt,
		IncludeImage:        p.IncludeImage,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func toCarouselModel(item domain.Item) carouselModel {
	return carouselModel{
		ID:                  item.ID,
		GenerationRunID:     item.GenerationRunID,
		Title:               item.Title,
		Body:                item.Body,
		DocumentURL:         item.DocumentURL,
		Approved:            item.Approved,
		AutoPublish:         item.AutoPublish,
		ScheduledAt:         item.ScheduledAt,
		ExternalPostID:      item.ExternalPostID,
		ExternalPublishedAt: item.ExternalPublishedAt,
		PublishError:        item.PublishError,
		PublishClaimedAt:    item.PublishClaimedAt,
		Status:              string(statusOrDraft(item.Status)),
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
}

func statusOrDraft(s domain.PublishStatus) domain.PublishStatus {
	if s == "" {
		return domain.StatusDraft
	}
	return s
}
