package repository

import (
	"context"
	"errors"
	"time"

	"github.com/draftcast/draftcast/connections/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type connectionModel struct {
	ID              string    `gorm:"primaryKey;column:id"`
	UserID          string    `gorm:"column:user_id;not null;uniqueIndex"`
	AccessTokenEnc  string    `gorm:"column:access_token_enc;not null"`
	RefreshTokenEnc string    `gorm:"column:refresh_token_enc"`
	ExpiresAt       time.Time `gorm:"column:expires_at;not null"`
	ProfileID       string    `gorm:"column:profile_id"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
}

func (connectionModel) TableName() string { return "platform_connections" }

type ConnectionGormRepository struct {
	db *gorm.DB
}

func NewConnectionGormRepository(db *gorm.DB) *ConnectionGormRepository {
	return &ConnectionGormRepository{db: db}
}

func (r *ConnectionGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&connectionModel{})
}

func (r *ConnectionGormRepository) GetByUserID(ctx context.Context, userID string) (domain.PlatformConnection, error) {
	var m connectionModel
	if err := r.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PlatformConnection{}, domain.ErrNotConnected
		}
		return domain.PlatformConnection{}, err
	}
	return fromModel(m), nil
}

func (r *ConnectionGormRepository) Upsert(ctx context.Context, conn domain.PlatformConnection) error {
	m := toModel(conn)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token_enc", "refresh_token_enc", "expires_at", "profile_id", "updated_at",
		}),
	}).Create(&m).Error
}

func (r *ConnectionGormRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Delete(&connectionModel{}, "user_id = ?", userID).Error
}

func fromModel(m connectionModel) domain.PlatformConnection {
	return domain.PlatformConnection{
		ID:              m.ID,
		UserID:          m.UserID,
		AccessTokenEnc:  m.AccessTokenEnc,
		RefreshTokenEnc: m.RefreshTokenEnc,
		ExpiresAt:       m.ExpiresAt,
		ProfileID:       m.ProfileID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toModel(c domain.PlatformConnection) connectionModel {
	return connectionModel{
		ID:              c.ID,
		UserID:          c.UserID,
		AccessTokenEnc:  c.AccessTokenEnc,
		RefreshTokenEnc: c.RefreshTokenEnc,
		ExpiresAt:       c.ExpiresAt,
		ProfileID:       c.ProfileID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
