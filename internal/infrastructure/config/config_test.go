package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PIX_APP_NAME":                          os.Getenv("PIX_APP_NAME"),
		"PIX_APP_ENV":                           os.Getenv("PIX_APP_ENV"),
		"PIX_APP_PORT":                          os.Getenv("PIX_APP_PORT"),
		"PIX_DATABASE_HOST":                     os.Getenv("PIX_DATABASE_HOST"),
		"PIX_DATABASE_PORT":                     os.Getenv("PIX_DATABASE_PORT"),
		"PIX_DATABASE_USER":                     os.Getenv("PIX_DATABASE_USER"),
		"PIX_DATABASE_PASSWORD":                 os.Getenv("PIX_DATABASE_PASSWORD"),
		"PIX_DATABASE_DBNAME":                   os.Getenv("PIX_DATABASE_DBNAME"),
		"PIX_DATABASE_SSLMODE":                  os.Getenv("PIX_DATABASE_SSLMODE"),
		"PIX_DATABASE_MAX_OPEN_CONNS":           os.Getenv("PIX_DATABASE_MAX_OPEN_CONNS"),
		"PIX_DATABASE_MAX_IDLE_CONNS":           os.Getenv("PIX_DATABASE_MAX_IDLE_CONNS"),
		"PIX_JWT_SECRET":                        os.Getenv("PIX_JWT_SECRET"),
		"PIX_DIRECTORY_BASE_URL":                os.Getenv("PIX_DIRECTORY_BASE_URL"),
		"PIX_DIRECTORY_API_KEY":                 os.Getenv("PIX_DIRECTORY_API_KEY"),
		"PIX_CLAIM_OWNERSHIP_RESOLUTION_WINDOW": os.Getenv("PIX_CLAIM_OWNERSHIP_RESOLUTION_WINDOW"),
		"PIX_CLAIM_OWNERSHIP_COMPLETION_WINDOW": os.Getenv("PIX_CLAIM_OWNERSHIP_COMPLETION_WINDOW"),
		"PIX_CLAIM_OWNERSHIP_EXPIRY_OUTCOME":    os.Getenv("PIX_CLAIM_OWNERSHIP_EXPIRY_OUTCOME"),
		"PIX_HTTP_WAIT_TIMEOUT":                 os.Getenv("PIX_HTTP_WAIT_TIMEOUT"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pix-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "pix", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 7*24*time.Hour, cfg.Claim.OwnershipResolutionWindow)
		assert.Equal(t, 14*24*time.Hour, cfg.Claim.OwnershipCompletionWindow)
		assert.Equal(t, 3*24*time.Hour, cfg.Claim.PortabilityResolutionWindow)
		assert.Equal(t, 7*24*time.Hour, cfg.Claim.PortabilityCompletionWindow)
		assert.Equal(t, 30*time.Second, cfg.HTTP.WaitTimeout)
		assert.Equal(t, time.Minute, cfg.Reconciler.SweepInterval)
	})

	t.Run("loads values from environment variables with PIX prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIX_APP_NAME", "test-app")
		os.Setenv("PIX_APP_PORT", "9000")
		os.Setenv("PIX_DATABASE_HOST", "testdb.local")
		os.Setenv("PIX_DATABASE_PORT", "5433")
		os.Setenv("PIX_DIRECTORY_BASE_URL", "https://directory.test")
		os.Setenv("PIX_CLAIM_OWNERSHIP_RESOLUTION_WINDOW", "48h")
		os.Setenv("PIX_CLAIM_OWNERSHIP_COMPLETION_WINDOW", "96h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "https://directory.test", cfg.Directory.BaseURL)
		assert.Equal(t, 48*time.Hour, cfg.Claim.OwnershipResolutionWindow)
		assert.Equal(t, 96*time.Hour, cfg.Claim.OwnershipCompletionWindow)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIX_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("PIX_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates resolution window within completion window", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIX_CLAIM_OWNERSHIP_RESOLUTION_WINDOW", "240h")
		os.Setenv("PIX_CLAIM_OWNERSHIP_COMPLETION_WINDOW", "120h")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ownership_resolution_window")
	})

	t.Run("rejects unknown expiry outcome", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIX_CLAIM_OWNERSHIP_EXPIRY_OUTCOME", "EXPLODED")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expiry outcome")
	})

	t.Run("accepts explicit expiry outcome", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIX_CLAIM_OWNERSHIP_EXPIRY_OUTCOME", "COMPLETED")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", cfg.Claim.OwnershipExpiryOutcome)
	})

	t.Run("rejects wait timeout above write timeout", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIX_HTTP_WAIT_TIMEOUT", "120s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wait_timeout")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"PIX_APP_ENV":           os.Getenv("PIX_APP_ENV"),
		"PIX_JWT_SECRET":        os.Getenv("PIX_JWT_SECRET"),
		"PIX_DATABASE_PASSWORD": os.Getenv("PIX_DATABASE_PASSWORD"),
		"PIX_DATABASE_SSLMODE":  os.Getenv("PIX_DATABASE_SSLMODE"),
		"PIX_DIRECTORY_API_KEY": os.Getenv("PIX_DIRECTORY_API_KEY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("PIX_APP_ENV", "production")
		os.Setenv("PIX_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("PIX_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PIX_DATABASE_SSLMODE", "require")
		os.Setenv("PIX_DIRECTORY_API_KEY", "directory-api-key")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("PIX_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PIX_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("PIX_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PIX_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires directory.api_key in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("PIX_DIRECTORY_API_KEY")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory.api_key is required in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.local", Port: 6380}
	assert.Equal(t, "redis.local:6380", cfg.Addr())
}
