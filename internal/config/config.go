package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Source API
	SourceURL         string
	SourceMaxAttempts int

	// UiPath Orchestrator
	OrchestratorURL  string
	AccessToken      string
	QueueName        string
	FolderID         *int64
	folderIDRaw      string
	QueueMaxAttempts int
	QueueRateLimit   float64

	// Shared HTTP client timeout; 0 = none
	HTTPTimeout time.Duration

	// Metrics
	PushgatewayURL string
	MetricsJob     string

	// Run report
	ReportDir      string
	ReportCompress bool

	// SFTP
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool

	// S3
	S3Bucket          string
	S3Prefix          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

func Load() Config {
	return Config{
		// Source API
		SourceURL:         getenv("SOURCE_URL", "https://dummy.restapiexample.com/api/v1/employees"),
		SourceMaxAttempts: getenvInt("SOURCE_MAX_ATTEMPTS", 1),

		// UiPath Orchestrator
		OrchestratorURL:  strings.TrimRight(os.Getenv("UIPATH_ORCHESTRATOR_URL"), "/"),
		AccessToken:      os.Getenv("UIPATH_ACCESS_TOKEN"),
		QueueName:        getenv("UIPATH_QUEUE_NAME", "New Hires"),
		FolderID:         getenvInt64Ptr("UIPATH_FOLDER_ID"),
		folderIDRaw:      strings.TrimSpace(os.Getenv("UIPATH_FOLDER_ID")),
		QueueMaxAttempts: getenvInt("QUEUE_MAX_ATTEMPTS", 1),
		QueueRateLimit:   getenvFloat("QUEUE_RATE_LIMIT", 0),

		HTTPTimeout: getenvDuration("HTTP_TIMEOUT", 0),

		// Metrics
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		MetricsJob:     getenv("METRICS_JOB", "queue_hires"),

		// Run report
		ReportDir:      os.Getenv("REPORT_DIR"),
		ReportCompress: getenvBool("REPORT_COMPRESS", false),

		// SFTP
		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", false),

		// S3
		S3Bucket:          os.Getenv("REPORT_S3_BUCKET"),
		S3Prefix:          getenv("REPORT_S3_PREFIX", "queue-hires/"),
		S3Region:          getenv("AWS_REGION", "us-east-1"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	return c.validate(true)
}

// ValidateDryRun skips the Orchestrator credentials, which a dry run never uses.
func (c Config) ValidateDryRun() error {
	return c.validate(false)
}

func (c Config) validate(needOrchestrator bool) error {
	var errs []error
	if strings.TrimSpace(c.SourceURL) == "" {
		errs = append(errs, errors.New("missing env: SOURCE_URL"))
	}
	if needOrchestrator && c.OrchestratorURL == "" {
		errs = append(errs, errors.New("missing env: UIPATH_ORCHESTRATOR_URL"))
	}
	if needOrchestrator && c.AccessToken == "" {
		errs = append(errs, errors.New("missing env: UIPATH_ACCESS_TOKEN"))
	}
	if strings.TrimSpace(c.QueueName) == "" {
		errs = append(errs, errors.New("missing env: UIPATH_QUEUE_NAME"))
	}
	if c.folderIDRaw != "" && c.FolderID == nil {
		errs = append(errs, fmt.Errorf("UIPATH_FOLDER_ID must be an integer, got %q", c.folderIDRaw))
	}
	if c.QueueRateLimit < 0 {
		errs = append(errs, fmt.Errorf("QUEUE_RATE_LIMIT must be >= 0, got %v", c.QueueRateLimit))
	}
	return errors.Join(errs...)
}

// SFTPEnabled is true when enough is set to attempt an upload.
func (c Config) SFTPEnabled() bool {
	return c.SFTPHost != "" && c.SFTPUser != "" && c.SFTPPass != ""
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// getenvInt64Ptr returns nil when k is unset or not an integer.
func getenvInt64Ptr(k string) *int64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func getenvFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}
