package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for key, value := range overrides {
		v.Set(key, value)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 3*time.Second, cfg.Lock.Wait)
	assert.Equal(t, "0 5 0 * * *", cfg.Scheduler.OverdueSpec)
	assert.Equal(t, ":9091", cfg.Scheduler.MetricsAddr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Health.Timeout)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:loans.db?_txlock=immediate")
	t.Setenv("LOCK_TTL", "30s")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "file:loans.db?_txlock=immediate", cfg.Database.URL)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.True(t, cfg.IsProduction())
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		overrides     map[string]interface{}
		errorContains string
	}{
		{
			name:          "empty port",
			overrides:     map[string]interface{}{"SERVER_PORT": ""},
			errorContains: "SERVER_PORT",
		},
		{
			name:          "unknown driver",
			overrides:     map[string]interface{}{"DATABASE_DRIVER": "mysql"},
			errorContains: "DATABASE_DRIVER",
		},
		{
			name:          "empty database url",
			overrides:     map[string]interface{}{"DATABASE_URL": ""},
			errorContains: "DATABASE_URL",
		},
		{
			name:          "zero lock ttl",
			overrides:     map[string]interface{}{"LOCK_TTL": "0s"},
			errorContains: "LOCK_TTL",
		},
		{
			name:          "bad cron spec",
			overrides:     map[string]interface{}{"SCHEDULER_OVERDUE_SPEC": "every day"},
			errorContains: "SCHEDULER_OVERDUE_SPEC",
		},
		{
			name:          "cron spec without seconds",
			overrides:     map[string]interface{}{"SCHEDULER_OVERDUE_SPEC": "5 0 * * *"},
			errorContains: "SCHEDULER_OVERDUE_SPEC",
		},
		{
			name:          "bad timezone",
			overrides:     map[string]interface{}{"SCHEDULER_TIMEZONE": "Mars/Olympus"},
			errorContains: "SCHEDULER_TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromViper(newViper(tt.overrides))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}
