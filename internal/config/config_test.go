package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrefersEnvironment(t *testing.T) {
	t.Setenv("admin_username", "boss")

	r := NewResolver()
	v, ok := r.Resolve("admin_username")
	assert.True(t, ok)
	assert.Equal(t, "boss", v)
}

func TestResolveAbsentKey(t *testing.T) {
	r := NewResolver()
	v, ok := r.Resolve("definitely_not_configured")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestResolveCredentialLiteralJSON(t *testing.T) {
	t.Setenv("gcp_key", `{"type":"service_account","client_email":"bot@example.iam"}`)

	cred := resolveCredential(NewResolver())
	assert.Contains(t, cred, "service_account")
}

func TestResolveCredentialMalformedJSON(t *testing.T) {
	t.Setenv("gcp_key", `{"type": "service_account"`)

	assert.Empty(t, resolveCredential(NewResolver()), "malformed key resolves as unavailable, not as an error")
}

func TestResolveCredentialFileReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600))

	t.Setenv("gcp_key", "@"+path)
	cred := resolveCredential(NewResolver())
	assert.Equal(t, `{"type":"service_account"}`, cred)

	t.Setenv("gcp_key", "@"+filepath.Join(dir, "missing.json"))
	assert.Empty(t, resolveCredential(NewResolver()))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Cache.LiveTTLSeconds)
	assert.Equal(t, 600, cfg.Cache.SlowTTLSeconds)
	assert.Equal(t, "users", cfg.Sheets.UsersSheet)
	assert.Equal(t, "posts", cfg.Sheets.PostsSheet)
	assert.Equal(t, "live_data", cfg.Sheets.LiveBook)
	assert.Equal(t, "imgbb", cfg.Image.Provider)
	assert.Equal(t, "https://p.opay.tw/qzA4j", cfg.Payment.URL)
	assert.False(t, cfg.Auth.HashNewAccounts)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("WARROOM_SERVER_ADDR", "127.0.0.1:9090")
	t.Setenv("WARROOM_CACHE_LIVETTLSECONDS", "30")
	t.Setenv("admin_password", "supersecret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Cache.LiveTTLSeconds)
	assert.Equal(t, "supersecret", cfg.Auth.AdminPassword)
}
