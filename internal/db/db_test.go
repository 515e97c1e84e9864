package db

import (
	"testing"

	"github.com/shinyyama/storefront-rewards/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "app", DBPassword: "secret", DBName: "rewards", DBPort: "3306"}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{
			name:   "plain host",
			mutate: func(c *config.Config) { c.DBHost = "db.local" },
			want:   "app:secret@tcp(db.local:3306)/rewards?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "tcp prefix kept",
			mutate: func(c *config.Config) { c.DBHost = "tcp(10.0.0.1:3307)" },
			want:   "app:secret@tcp(10.0.0.1:3307)/rewards?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "socket path",
			mutate: func(c *config.Config) { c.DBHost = "/var/run/mysqld.sock" },
			want:   "app:secret@unix(/var/run/mysqld.sock)/rewards?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "cloud sql instance wins",
			mutate: func(c *config.Config) { c.DBHost = "ignored"; c.InstanceConnectionName = "p:r:i" },
			want:   "app:secret@unix(/cloudsql/p:r:i)/rewards?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "postgres",
			mutate: func(c *config.Config) { c.DBDriver = "postgres"; c.DBHost = "pg" },
			want:   "host=pg port=5432 user=app password=secret dbname=rewards sslmode=disable TimeZone=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Equal(t, tt.want, BuildDSN(&cfg))
		})
	}
}

func TestDialector(t *testing.T) {
	cfg := &config.Config{DBDriver: "postgres", DBUser: "u", DBName: "n", DBHost: "h"}
	d, err := Dialector(cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	cfg.DBDriver = "mysql"
	d, err = Dialector(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	cfg.DBDriver = "oracle"
	_, err = Dialector(cfg)
	assert.Error(t, err)

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}
