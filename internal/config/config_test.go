package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "")
	t.Setenv("MAX_HOUSE_IMAGES", "")
	t.Setenv("FEED_SESSION_TTL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 5, cfg.MaxHouseImages)
	assert.Equal(t, 2*time.Hour, cfg.FeedSessionTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"image/jpeg", "image/png"}, cfg.AllowedImageTypes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("FEED_SESSION_TTL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MAX_HOUSE_IMAGES", "not-a-number")

	cfg := Load()

	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.True(t, cfg.MinIOUseSSL)
	assert.Equal(t, 15*time.Minute, cfg.FeedSessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.MaxHouseImages)
}
