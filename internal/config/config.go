package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		AdminUsername   string
		AdminPassword   string
		HashNewAccounts bool
	}
	Sheets struct {
		Credential      string // service-account key JSON, empty when unresolvable
		MembershipBook  string
		LiveBook        string
		UsersSheet      string
		PostsSheet      string
	}
	Cache struct {
		LiveTTLSeconds int
		SlowTTLSeconds int
	}
	Image struct {
		Provider string // "imgbb" or "s3"
		ImgbbKey string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Payment struct {
		URL string
	}
}

// Resolver looks keys up across two tiers: the process environment first,
// then an optional secrets file. A missing or unreadable secrets file is
// ignored, the same key simply resolves as absent.
type Resolver struct {
	secrets *viper.Viper
}

// NewResolver loads the optional secrets file. Any read error is
// swallowed: deployments that only use environment variables must not
// fail because no file exists.
func NewResolver() *Resolver {
	s := viper.New()
	s.SetConfigName("secrets")
	s.AddConfigPath(".")
	_ = s.ReadInConfig()
	return &Resolver{secrets: s}
}

// Resolve returns the value for key, or ok=false when neither tier has it.
func (r *Resolver) Resolve(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	if r.secrets.IsSet(key) {
		return r.secrets.GetString(key), true
	}
	return "", false
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("WARROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 720)
	v.SetDefault("auth.hashnewaccounts", false)
	v.SetDefault("sheets.membershipbook", "會員系統資料庫")
	v.SetDefault("sheets.livebook", "live_data")
	v.SetDefault("sheets.userssheet", "users")
	v.SetDefault("sheets.postssheet", "posts")
	v.SetDefault("cache.livettlseconds", 20)
	v.SetDefault("cache.slowttlseconds", 600)
	v.SetDefault("image.provider", "imgbb")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "warroom-posts")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("payment.url", "https://p.opay.tw/qzA4j")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	r := NewResolver()
	cfg.Sheets.Credential = resolveCredential(r)
	cfg.Auth.AdminUsername, _ = r.Resolve("admin_username")
	cfg.Auth.AdminPassword, _ = r.Resolve("admin_password")
	cfg.Image.ImgbbKey, _ = r.Resolve("imgbb_key")

	return cfg, nil
}

// resolveCredential fetches the service-account key. The value is either
// the key JSON itself or an @-prefixed path to a file holding it.
// Malformed JSON resolves to empty rather than an error: the sheets
// client treats an empty credential as "store unavailable".
func resolveCredential(r *Resolver) string {
	raw, ok := r.Resolve("gcp_key")
	if !ok {
		return ""
	}
	if path, found := strings.CutPrefix(raw, "@"); found {
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		raw = string(data)
	}
	if !json.Valid([]byte(raw)) {
		return ""
	}
	return raw
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
