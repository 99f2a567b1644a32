package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrGuildSettingsNotFound = errors.New("guild settings not found")

type GuildSettings struct {
	GuildID                 string `gorm:"primaryKey;size:32"`
	DefaultPublishChannelID string
	DefaultLogChannelID     string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type GuildSettingsDAO struct {
	db *gorm.DB
}

func NewGuildSettingsDAO(db *gorm.DB) *GuildSettingsDAO {
	return &GuildSettingsDAO{
		db: db,
	}
}

func (d *GuildSettingsDAO) FindByGuildID(ctx context.Context, guildID string) (GuildSettings, error) {
	var settings GuildSettings

	result := d.db.WithContext(ctx).First(&settings, "guild_id = ?", guildID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return GuildSettings{}, ErrGuildSettingsNotFound
		}

		return GuildSettings{}, result.Error
	}

	return settings, nil
}

// Upsert writes only the non-empty channel columns so that setting one default keeps the other.
func (d *GuildSettingsDAO) Upsert(ctx context.Context, settings GuildSettings) (GuildSettings, error) {
	var updateColumns []string
	if settings.DefaultPublishChannelID != "" {
		updateColumns = append(updateColumns, "default_publish_channel_id")
	}
	if settings.DefaultLogChannelID != "" {
		updateColumns = append(updateColumns, "default_log_channel_id")
	}
	updateColumns = append(updateColumns, "updated_at")

	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(&settings)
	if result.Error != nil {
		return GuildSettings{}, result.Error
	}

	return d.FindByGuildID(ctx, settings.GuildID)
}
