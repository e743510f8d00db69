package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 8080
database:
  host: localhost
  user: rentrush
  database: rentrush
jwt:
  secret: 0123456789abcdef0123456789abcdef
storage:
  local_dir: ./invoices
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Booking.Timezone)
	assert.Equal(t, "closed", cfg.Booking.BoundaryPolicy)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "auth_token", cfg.JWT.CookieName)
	assert.Equal(t, "0 */15 * * * *", cfg.Scheduler.RetryFailedInvoices)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "postgres://rentrush:@localhost:0/rentrush?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("BOOKING_BOUNDARY_POLICY", "half_open")
	t.Setenv("BOOKING_TIMEZONE", "Asia/Karachi")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "half_open", cfg.Booking.BoundaryPolicy)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Asia/Karachi", cfg.Location().String())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"Bad policy", map[string]string{"BOOKING_BOUNDARY_POLICY": "overlapping"}},
		{"Bad timezone", map[string]string{"BOOKING_TIMEZONE": "Mars/Olympus"}},
		{"Bad storage", map[string]string{"STORAGE_TYPE": "ftp"}},
		{"Short secret", map[string]string{"JWT_SECRET": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse([]byte(minimalYAML))
			assert.Error(t, err)
		})
	}
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("car.search"))
	assert.Equal(t, SecurityShowroom, GetSecurityLevel("car.add"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("booking.create"))
	assert.Equal(t, SecurityAdmin, GetSecurityLevel("unknown.route"))
}
