package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("BADGER_FILEPATH", "/tmp/chatsync")
	t.Setenv("AUTH_SECRET", "0123456789abcdef")

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal("0.0.0.0:50051", config.Address())
	req.Equal("INFO", config.LogLevel)
	req.Equal(24*time.Hour, config.AuthTokenDuration)
	req.Equal(20, config.LiveWindow)
	req.Equal("disk", config.BlobBackend)
}

func TestLoadConfig_Rejects(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("BADGER_FILEPATH", "/tmp/chatsync")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("BADGER_FILEPATH", "/tmp/chatsync")
		t.Setenv("AUTH_SECRET", "0123456789abcdef")
		t.Setenv("BLOB_BACKEND", "s3")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "S3Bucket")
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("BADGER_FILEPATH", "/tmp/chatsync")
		t.Setenv("AUTH_SECRET", "0123456789abcdef")
		t.Setenv("BLOB_BACKEND", "ftp")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "BlobBackend")
	})
}
