package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marmos91/dittoapi/pkg/models"
)

// ListSettings returns all settings ordered by key.
func (s *GORMStore) ListSettings(ctx context.Context) ([]*models.Setting, error) {
	var settings []*models.Setting
	if err := s.db.WithContext(ctx).Order("key").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// GetSetting returns the setting stored under key.
func (s *GORMStore) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	if err := models.ValidateSettingKey(key); err != nil {
		return nil, err
	}
	var setting models.Setting
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrSettingNotFound
		}
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or replaces the value stored under key.
func (s *GORMStore) SetSetting(ctx context.Context, key, value string) (*models.Setting, error) {
	if err := models.ValidateSettingKey(key); err != nil {
		return nil, err
	}
	setting := &models.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}

// DeleteSetting removes key. Returns models.ErrSettingNotFound if absent.
func (s *GORMStore) DeleteSetting(ctx context.Context, key string) error {
	if err := models.ValidateSettingKey(key); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrSettingNotFound
	}
	return nil
}
