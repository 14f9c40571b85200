package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: 9090
  base_url: "https://fixedpronos.test"
admin:
  user_ids: [1, 42]
moneyfusion:
  api_url: "https://provider.test/pay"
  timeout: 3s
subscription:
  plans:
    basic:
      price: 39
      duration_months: 1
    vip:
      price: 149
      duration_months: 3
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", testYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "https://fixedpronos.test", cfg.Server.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.MoneyFusion.Timeout)
	assert.Equal(t, "/api/v1/webhooks/moneyfusion", cfg.MoneyFusion.WebhookPath)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "XOF", cfg.Subscription.Currency)
	assert.Equal(t, "entitlement_repair", cfg.Queue.RepairQueue)
	assert.Equal(t, 5, cfg.Queue.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.Jobs.ExpiryInterval)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.StaleAfter)
}

func TestLoad_PrefersLocalConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", testYAML)
	writeConfig(t, dir, "config.local.yaml", "server:\n  port: 7000\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCORSConfig_AllowsOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "empty list", allowed: []string{}, origin: "https://fixedpronos.com", want: false},
		{name: "empty origin", allowed: []string{""}, origin: "", want: false},
		{name: "exact match", allowed: []string{"https://fixedpronos.com"}, origin: "https://fixedpronos.com", want: true},
		{name: "prefix only", allowed: []string{"https://fixedpronos.com"}, origin: "https://fixedpronos.com.evil.io", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CORSConfig{AllowedOrigins: tt.allowed}.AllowsOrigin(tt.origin))
		})
	}
}

func TestAdminConfig_IsAdmin(t *testing.T) {
	admin := AdminConfig{UserIDs: []int64{1, 42}}

	assert.True(t, admin.IsAdmin(42))
	assert.False(t, admin.IsAdmin(7))
	assert.False(t, AdminConfig{}.IsAdmin(1))
}

func TestSubscriptionConfig_PlanDurationMonths(t *testing.T) {
	sub := SubscriptionConfig{
		Plans: map[string]PlanConfig{
			"basic": {DurationMonths: 1},
			"vip":   {DurationMonths: 3},
			"pro":   {},
		},
	}

	assert.Equal(t, 1, sub.PlanDurationMonths("basic"))
	assert.Equal(t, 3, sub.PlanDurationMonths("vip"))
	assert.Equal(t, 1, sub.PlanDurationMonths("pro"))
	assert.Equal(t, 1, sub.PlanDurationMonths("unknown"))
}

func TestSubscriptionConfig_PlanPrice(t *testing.T) {
	sub := SubscriptionConfig{
		Plans: map[string]PlanConfig{
			"basic": {Price: 39},
			"vip":   {Price: 149.5},
			"pro":   {},
		},
	}

	price, ok := sub.PlanPrice("basic")
	require.True(t, ok)
	assert.Equal(t, "39", price.String())

	price, ok = sub.PlanPrice("vip")
	require.True(t, ok)
	assert.Equal(t, "149.5", price.String())

	_, ok = sub.PlanPrice("pro")
	assert.False(t, ok)
	_, ok = sub.PlanPrice("unknown")
	assert.False(t, ok)
}
