package repository

import (
	"context"
	"time"

	"github.com/draftcast/draftcast/notifications/domain"
	"gorm.io/gorm"
)

type targetModel struct {
	ID        string    `gorm:"primaryKey;column:id"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	Endpoint  string    `gorm:"column:endpoint;not null"`
	P256dhKey string    `gorm:"column:p256dh_key;not null"`
	AuthKey   string    `gorm:"column:auth_key;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (targetModel) TableName() string { return "notification_targets" }

type TargetGormRepository struct {
	db *gorm.DB
}

func NewTargetGormRepository(db *gorm.DB) *TargetGormRepository {
	return &TargetGormRepository{db: db}
}

func (r *TargetGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&targetModel{})
}

func (r *TargetGormRepository) ListByUser(ctx context.Context, userID string) ([]domain.Target, error) {
	var models []targetModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&models).Error; err != nil {
		return nil, err
	}
	targets := make([]domain.Target, len(models))
	for i, m := range models {
		targets[i] = domain.Target{
			ID:        m.ID,
			UserID:    m.UserID,
			Endpoint:  m.Endpoint,
			P256dhKey: m.P256dhKey,
			AuthKey:   m.AuthKey,
			CreatedAt: m.CreatedAt,
		}
	}
	return targets, nil
}

func (r *TargetGormRepository) Save(ctx context.Context, t domain.Target) error {
	m := targetModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Endpoint:  t.Endpoint,
		P256dhKey: t.P256dhKey,
		AuthKey:   t.AuthKey,
		CreatedAt: t.CreatedAt,
	}
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *TargetGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&targetModel{}, "id = ?", id).Error
}
