package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
	"github.com/dmitrijs2005/gophvault/internal/timex"
)

// JsonConfig is the on-disk shape of the server config. Durations accept
// both "15m" and integer nanoseconds. Absent keys leave the current value
// untouched.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	Argon2Time                  uint32         `json:"argon2_time"`
	Argon2MemoryKiB             uint32         `json:"argon2_memory_kib"`
	Argon2Threads               uint8          `json:"argon2_threads"`
	KdfWorkers                  int            `json:"kdf_workers"`
	KdfQueue                    *int           `json:"kdf_queue"`
	MfaIssuer                   string         `json:"mfa_issuer"`
	HIBPRangeURL                string         `json:"hibp_range_url"`
	HIBPTimeout                 timex.Duration `json:"hibp_timeout"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	BackupLinkTTL               timex.Duration `json:"backup_link_ttl"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config in args.
// Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.MfaIssuer, c.MfaIssuer)
	setString(&config.HIBPRangeURL, c.HIBPRangeURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.HIBPTimeout.Duration != 0 {
		config.HIBPTimeout = c.HIBPTimeout.Duration
	}
	if c.BackupLinkTTL.Duration != 0 {
		config.BackupLinkTTL = c.BackupLinkTTL.Duration
	}
	if c.Argon2Time != 0 {
		config.Argon2Time = c.Argon2Time
	}
	if c.Argon2MemoryKiB != 0 {
		config.Argon2MemoryKiB = c.Argon2MemoryKiB
	}
	if c.Argon2Threads != 0 {
		config.Argon2Threads = c.Argon2Threads
	}
	if c.KdfWorkers != 0 {
		config.KdfWorkers = c.KdfWorkers
	}
	if c.KdfQueue != nil {
		config.KdfQueue = *c.KdfQueue
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
