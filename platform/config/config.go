// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// AdminAuthConfig provides the secret used to verify admin bearer tokens.
type AdminAuthConfig interface {
	GetAdminJWTSecret() string
	IsAdminAuthEnabled() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetInboxPollCron() string
	GetAssignmentCron() string
	GetCallDelayCron() string
	GetBreakSweepCron() string
	GetPerformanceCron() string
	GetBreakResetCron() string
	GetTimeZone() string
}

// TimeTrackingConfig provides settings for the break state machine.
type TimeTrackingConfig interface {
	GetRedisURL() string
	GetBreakStartTTL() time.Duration
	GetTimeZone() string
}

// SMTPConfig provides settings for outbound assignment emails.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// InboxConfig provides settings for the inbound IMAP mailbox.
type InboxConfig interface {
	GetIMAPHost() string
	GetIMAPPort() int
	GetIMAPUsername() string
	GetIMAPPassword() string
	GetIMAPFolder() string
	GetInboxBatchSize() int
	IsInboxEnabled() bool
}

// WebhookConfig provides settings for the Facebook Lead Ads webhook.
type WebhookConfig interface {
	GetFBVerifyToken() string
	GetFBPageAccessToken() string
	GetFBGraphBaseURL() string
	GetLeadAppendURL() string
	GetProjectsFile() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketBrochures() string
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}

// MetricsConfig scopes the Prometheus endpoint. The api serves /metrics on
// its own listener; the scheduler binary uses MetricsAddr.
type MetricsConfig interface {
	IsMetricsEnabled() bool
	GetMetricsAddr() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool
	AdminJWTSecret string
	// RedisURL backs the task queue and the shared break store. The scheduler
	// requires it; an api without it keeps break starts in its own memory and
	// must then run as the only process.
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	InboxPollCron       string
	AssignmentCron      string
	CallDelayCron       string
	BreakSweepCron      string
	PerformanceCron     string
	BreakResetCron      string
	TimeZone            string
	BreakStartTTL       time.Duration
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	EmailFromName       string
	EmailFromAddress    string
	IMAPHost            string
	IMAPPort            int
	IMAPUsername        string
	IMAPPassword        string
	IMAPFolder          string
	InboxBatchSize      int
	FBVerifyToken       string
	FBPageAccessToken   string
	FBGraphBaseURL      string
	LeadAppendURL       string
	ProjectsFile        string
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinioBucketBrochure string
	MinIOMaxFileSize    int64
	MetricsEnabled      bool
	MetricsAddr         string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// AdminAuthConfig implementation
func (c *Config) GetAdminJWTSecret() string { return c.AdminJWTSecret }
func (c *Config) IsAdminAuthEnabled() bool  { return c.AdminJWTSecret != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }
func (c *Config) GetInboxPollCron() string   { return c.InboxPollCron }
func (c *Config) GetAssignmentCron() string  { return c.AssignmentCron }
func (c *Config) GetCallDelayCron() string   { return c.CallDelayCron }
func (c *Config) GetBreakSweepCron() string  { return c.BreakSweepCron }
func (c *Config) GetPerformanceCron() string { return c.PerformanceCron }
func (c *Config) GetBreakResetCron() string  { return c.BreakResetCron }
func (c *Config) GetTimeZone() string        { return c.TimeZone }

// TimeTrackingConfig implementation
func (c *Config) GetBreakStartTTL() time.Duration { return c.BreakStartTTL }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" }

// InboxConfig implementation
func (c *Config) GetIMAPHost() string     { return c.IMAPHost }
func (c *Config) GetIMAPPort() int        { return c.IMAPPort }
func (c *Config) GetIMAPUsername() string { return c.IMAPUsername }
func (c *Config) GetIMAPPassword() string { return c.IMAPPassword }
func (c *Config) GetIMAPFolder() string   { return c.IMAPFolder }
func (c *Config) GetInboxBatchSize() int  { return c.InboxBatchSize }
func (c *Config) IsInboxEnabled() bool    { return c.IMAPHost != "" && c.IMAPUsername != "" }

// WebhookConfig implementation
func (c *Config) GetFBVerifyToken() string     { return c.FBVerifyToken }
func (c *Config) GetFBPageAccessToken() string { return c.FBPageAccessToken }
func (c *Config) GetFBGraphBaseURL() string    { return c.FBGraphBaseURL }
func (c *Config) GetLeadAppendURL() string     { return c.LeadAppendURL }
func (c *Config) GetProjectsFile() string      { return c.ProjectsFile }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketBrochures() string { return c.MinioBucketBrochure }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// MetricsConfig implementation
func (c *Config) IsMetricsEnabled() bool { return c.MetricsEnabled }
func (c *Config) GetMetricsAddr() string { return c.MetricsAddr }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "*"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AdminJWTSecret:      getEnv("ADMIN_JWT_SECRET", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "leads"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "1")),
		InboxPollCron:       getEnv("INBOX_POLL_CRON", "*/5 * * * *"),
		AssignmentCron:      getEnv("ASSIGNMENT_CRON", "*/5 * * * *"),
		CallDelayCron:       getEnv("CALL_DELAY_CRON", "*/1 * * * *"),
		BreakSweepCron:      getEnv("BREAK_SWEEP_CRON", "*/1 * * * *"),
		PerformanceCron:     getEnv("PERFORMANCE_CRON", "0 * * * *"),
		BreakResetCron:      getEnv("BREAK_RESET_CRON", "0 0 * * *"),
		TimeZone:            getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		BreakStartTTL:       mustDuration(getEnv("BREAK_START_TTL", "6h")),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Titans"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		IMAPHost:            getEnv("IMAP_HOST", ""),
		IMAPPort:            mustInt(getEnv("IMAP_PORT", "993")),
		IMAPUsername:        getEnv("IMAP_USERNAME", ""),
		IMAPPassword:        getEnv("IMAP_PASSWORD", ""),
		IMAPFolder:          getEnv("IMAP_FOLDER", "INBOX"),
		InboxBatchSize:      mustInt(getEnv("INBOX_BATCH_SIZE", "20")),
		FBVerifyToken:       getEnv("FB_VERIFY_TOKEN", ""),
		FBPageAccessToken:   getEnv("FB_PAGE_ACCESS_TOKEN", ""),
		FBGraphBaseURL:      getEnv("FB_GRAPH_BASE_URL", "https://graph.facebook.com/v19.0"),
		LeadAppendURL:       getEnv("LEAD_APPEND_URL", ""),
		ProjectsFile:        getEnv("PROJECTS_FILE", ""),
		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:         strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketBrochure: getEnv("MINIO_BUCKET_BROCHURES", "project-brochures"),
		MinIOMaxFileSize:    int64(mustInt(getEnv("MINIO_MAX_FILE_SIZE_MB", "25"))) << 20,
		MetricsEnabled:      !strings.EqualFold(getEnv("METRICS_ENABLED", "true"), "false"),
		MetricsAddr:         getEnv("METRICS_ADDR", ":9091"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.FBVerifyToken == "" {
		return nil, fmt.Errorf("FB_VERIFY_TOKEN is required")
	}
	if cfg.IsSMTPEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.BreakStartTTL <= 0 {
		return nil, fmt.Errorf("BREAK_START_TTL must be a positive duration")
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
