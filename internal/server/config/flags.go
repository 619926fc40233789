package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-at", "-am", "-ap", "-w", "-q", "-i", "-h", "-u", "-p", "-b", "-g", "-e", "-bt", "-l"}

// parseFlags overlays server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret key
//	-t int      access token validity, minutes
//	-at uint    Argon2id time cost
//	-am uint    Argon2id memory, KiB
//	-ap uint    Argon2id parallelism
//	-w int      concurrent key derivations
//	-q int      callers allowed to wait for a derivation slot
//	-i string   MFA issuer
//	-h string   HIBP range API URL
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-bt int     backup link validity, minutes
//	-l string   log level (debug, info, warn, error)
//
// args are filtered with flagx.FilterArgs first so that -c/-config and
// anything unknown are ignored here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	argonTime := fs.Uint("at", uint(config.Argon2Time), "argon2id time cost")
	argonMemory := fs.Uint("am", uint(config.Argon2MemoryKiB), "argon2id memory (KiB)")
	argonThreads := fs.Uint("ap", uint(config.Argon2Threads), "argon2id parallelism")
	fs.IntVar(&config.KdfWorkers, "w", config.KdfWorkers, "concurrent key derivations")
	fs.IntVar(&config.KdfQueue, "q", config.KdfQueue, "derivation queue size")

	fs.StringVar(&config.MfaIssuer, "i", config.MfaIssuer, "MFA issuer")
	fs.StringVar(&config.HIBPRangeURL, "h", config.HIBPRangeURL, "HIBP range API URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	backupMinutes := fs.Int("bt", int(config.BackupLinkTTL.Minutes()), "backup link validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenMinutes) * time.Minute
	config.BackupLinkTTL = time.Duration(*backupMinutes) * time.Minute
	config.Argon2Time = uint32(*argonTime)
	config.Argon2MemoryKiB = uint32(*argonMemory)
	config.Argon2Threads = uint8(*argonThreads)
	return nil
}
