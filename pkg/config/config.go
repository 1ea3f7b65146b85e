package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Lockout       LockoutConfig
	Tracking      TrackingConfig
	CORS          CORSConfig
	Mail          MailConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var err error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		err = multierr.Append(err, errors.New("jwt secret is required"))
	}
	if c.JWT.ExpirationMinutes <= 0 {
		err = multierr.Append(err, errors.New("jwt expiration minutes must be positive"))
	}
	if c.JWT.RefreshTokenTTL() <= c.JWT.AccessTokenTTL() {
		err = multierr.Append(err, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", c.JWT.RefreshTokenTTL(), c.JWT.AccessTokenTTL()))
	}
	if c.Password.MinLength < 8 {
		err = multierr.Append(err, errors.New("password min length must be at least 8"))
	}
	if c.AuthRateLimit.LoginIPLimit <= 0 || c.AuthRateLimit.RegisterIPLimit <= 0 || c.AuthRateLimit.ResetIPLimit <= 0 {
		err = multierr.Append(err, errors.New("auth rate limits must be positive"))
	}
	if c.Tracking.AnonymousRetention <= 0 || c.Tracking.UserSessionRetention <= 0 || c.Tracking.LoginAttemptRetention <= 0 {
		err = multierr.Append(err, errors.New("tracking retention windows must be positive"))
	}
	if c.Lockout.MaxAttempts < 0 {
		err = multierr.Append(err, errors.New("login max attempts must not be negative"))
	}
	if _, perr := c.App.TrustedProxyPrefixes(); perr != nil {
		err = multierr.Append(err, perr)
	}
	if c.Mail.Enabled() && strings.TrimSpace(c.Mail.From) == "" {
		err = multierr.Append(err, errors.New("email from address is required when smtp host is set"))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"NAEBAK_APP_ENV" required:"true"`
	Port         string `envconfig:"NAEBAK_APP_PORT" required:"true"`
	ServiceName  string `envconfig:"NAEBAK_SERVICE_NAME" default:"naebak-auth-service"`
	LogLevel     string `envconfig:"NAEBAK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"NAEBAK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"NAEBAK_LOG_WARN_STACK" default:"false"`

	// TrustedProxies lists the addresses or CIDR ranges whose forwarding
	// headers are believed. Empty means the socket peer is always the client.
	TrustedProxies []string `envconfig:"NAEBAK_TRUSTED_PROXIES"`
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become
// single-host prefixes.
func (a AppConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(a.TrustedProxies))
	for _, raw := range a.TrustedProxies {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NAEBAK_DB_DSN"`
	Driver string `envconfig:"NAEBAK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NAEBAK_DB_HOST"`
	LegacyPort     int    `envconfig:"NAEBAK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NAEBAK_DB_USER"`
	LegacyPassword string `envconfig:"NAEBAK_DB_PASSWORD"`
	LegacyName     string `envconfig:"NAEBAK_DB_NAME"`
	LegacySSLMode  string `envconfig:"NAEBAK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"NAEBAK_DB_SQLITE_PATH" default:"naebak.db"`

	MaxOpenConns    int           `envconfig:"NAEBAK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NAEBAK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NAEBAK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NAEBAK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NAEBAK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NAEBAK_REDIS_ADDR"`
	Password     string        `envconfig:"NAEBAK_REDIS_PASSWORD"`
	DB           int           `envconfig:"NAEBAK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NAEBAK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NAEBAK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NAEBAK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NAEBAK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NAEBAK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NAEBAK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NAEBAK_JWT_ISSUER" default:"naebak-auth-service"`
	ExpirationMinutes      int    `envconfig:"NAEBAK_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"NAEBAK_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NAEBAK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NAEBAK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NAEBAK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NAEBAK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NAEBAK_ARGON_KEY_LEN" default:"32"`

	MinLength      int           `envconfig:"NAEBAK_PASSWORD_MIN_LENGTH" default:"8"`
	RequireMixed   bool          `envconfig:"NAEBAK_PASSWORD_REQUIRE_MIXED" default:"true"`
	ResetTokenTTL  time.Duration `envconfig:"NAEBAK_PASSWORD_RESET_TOKEN_TTL" default:"1h"`
	ResetURLPrefix string        `envconfig:"NAEBAK_PASSWORD_RESET_URL" default:"https://naebak.com/reset-password?token="`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NAEBAK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NAEBAK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	LoginIPLimit       int           `envconfig:"NAEBAK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"NAEBAK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"1m"`
	RegisterEmailLimit int           `envconfig:"NAEBAK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"5"`
	RegisterIPLimit    int           `envconfig:"NAEBAK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"5"`
	ResetWindow        time.Duration `envconfig:"NAEBAK_AUTH_RATE_LIMIT_RESET_WINDOW" default:"1m"`
	ResetEmailLimit    int           `envconfig:"NAEBAK_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"NAEBAK_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"3"`
}

// LockoutConfig blocks logins for an email after MaxAttempts failures within
// Window. A zero MaxAttempts disables the lockout.
type LockoutConfig struct {
	MaxAttempts int           `envconfig:"NAEBAK_LOGIN_MAX_ATTEMPTS" default:"5"`
	Window      time.Duration `envconfig:"NAEBAK_LOGIN_LOCKOUT_DURATION" default:"30m"`
}

// Enabled reports whether failed logins lock the email out.
func (l LockoutConfig) Enabled() bool {
	return l.MaxAttempts > 0 && l.Window > 0
}

type TrackingConfig struct {
	Enabled               bool          `envconfig:"NAEBAK_TRACKING_ENABLED" default:"true"`
	CookieName            string        `envconfig:"NAEBAK_TRACKING_COOKIE_NAME" default:"naebak_session"`
	CookieSecure          bool          `envconfig:"NAEBAK_TRACKING_COOKIE_SECURE" default:"false"`
	AnonymousRetention    time.Duration `envconfig:"NAEBAK_TRACKING_ANONYMOUS_RETENTION" default:"168h"`
	UserSessionRetention  time.Duration `envconfig:"NAEBAK_TRACKING_USER_SESSION_RETENTION" default:"720h"`
	LoginAttemptRetention time.Duration `envconfig:"NAEBAK_TRACKING_LOGIN_ATTEMPT_RETENTION" default:"2160h"`
	SweepWindow           time.Duration `envconfig:"NAEBAK_TRACKING_SWEEP_WINDOW" default:"1h"`
	SweepTimeout          time.Duration `envconfig:"NAEBAK_TRACKING_SWEEP_TIMEOUT" default:"30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"NAEBAK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	MaxAgeSeconds  int      `envconfig:"NAEBAK_CORS_MAX_AGE_SECONDS" default:"300"`
}

type MailConfig struct {
	Host        string        `envconfig:"NAEBAK_EMAIL_HOST"`
	Port        int           `envconfig:"NAEBAK_EMAIL_PORT" default:"587"`
	Username    string        `envconfig:"NAEBAK_EMAIL_HOST_USER"`
	Password    string        `envconfig:"NAEBAK_EMAIL_HOST_PASSWORD"`
	From        string        `envconfig:"NAEBAK_DEFAULT_FROM_EMAIL" default:"noreply@naebak.com"`
	SendTimeout time.Duration `envconfig:"NAEBAK_EMAIL_SEND_TIMEOUT" default:"10s"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

type CronConfig struct {
	Interval time.Duration `envconfig:"NAEBAK_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"NAEBAK_CRON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite                 bool `envconfig:"NAEBAK_USE_SQLITE" default:"false"`
	AutoMigrate               bool `envconfig:"NAEBAK_AUTO_MIGRATE" default:"false"`
	AutoSeed                  bool `envconfig:"NAEBAK_AUTO_SEED" default:"false"`
	EmailVerificationRequired bool `envconfig:"NAEBAK_EMAIL_VERIFICATION_REQUIRED" default:"false"`
	PhoneVerificationRequired bool `envconfig:"NAEBAK_PHONE_VERIFICATION_REQUIRED" default:"false"`
	AutoApproveCitizens       bool `envconfig:"NAEBAK_AUTO_APPROVE_CITIZENS" default:"true"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = "sqlite"
		db.DSN = db.SQLitePath
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
