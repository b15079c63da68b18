package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("OBJECT_STORE_BACKEND", "memory")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "listing-service", cfg.AppName)
	require.Equal(t, "8084", cfg.Rest.PORT)
	require.Equal(t, []string{"*"}, cfg.Rest.CORSAllowedOrigins)
	require.Equal(t, int64(5<<20), cfg.ObjectStore.MaxImageBytes)
	require.Equal(t, 30*time.Second, cfg.Cache.LocalTTL)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.False(t, cfg.RabbitMQ.Enabled)
	require.Empty(t, cfg.Amenities.Names)
}

func TestLoadConfig_FromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "STORAGE_BACKEND=memory\nOBJECT_STORE_BACKEND=memory\nAMENITIES=wifi,pool\nAMENITIES_VERSION=test\nMEMCACHE_HOSTS=a:11211,b:11211\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"STORAGE_BACKEND", "OBJECT_STORE_BACKEND", "AMENITIES", "AMENITIES_VERSION", "MEMCACHE_HOSTS"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"wifi", "pool"}, cfg.Amenities.Names)
	require.Equal(t, "test", cfg.Amenities.Version)
	require.Equal(t, []string{"a:11211", "b:11211"}, cfg.Cache.MemcacheHosts)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORAGE_BACKEND": "postgres", "OBJECT_STORE_BACKEND": "memory"}},
		{"s3 without bucket", map[string]string{"STORAGE_BACKEND": "memory", "OBJECT_STORE_BACKEND": "s3"}},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "mongo", "OBJECT_STORE_BACKEND": "memory"}},
		{"rabbit without url", map[string]string{"STORAGE_BACKEND": "memory", "OBJECT_STORE_BACKEND": "memory", "RABBITMQ_ENABLED": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("S3_BUCKET", "")
			t.Setenv("RABBITMQ_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}
}
