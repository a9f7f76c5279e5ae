// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config reads runtime configuration from the environment.
// Values come from the process environment, optionally seeded from a
// .env file by shared.LoadConfig.
package config

import (
	"os"
	"strconv"
	"time"
)

// Set via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const (
	// DefaultMaxSnapshotBytes caps a single document snapshot at 10 MiB.
	DefaultMaxSnapshotBytes = 10 << 20
	// DefaultStoreTimeout bounds a single object store operation.
	DefaultStoreTimeout = 30 * time.Second
	// DefaultAccessTokenTTL and DefaultRefreshTokenTTL bound session
	// lifetimes for the bearer token middleware.
	DefaultAccessTokenTTL  = 7 * 24 * time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	// DefaultInvitationTTL bounds how long a team invitation token is
	// accepted.
	DefaultInvitationTTL = 7 * 24 * time.Hour
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// ListenAddr is the address the HTTP server binds to.
func ListenAddr() string {
	return getEnv("API_LISTEN_ADDR", ":8080")
}

// ObjectStoreBackend selects where snapshot blobs live. One of
// "db" (default), "fs" or "s3".
func ObjectStoreBackend() string {
	return getEnv("OBJECT_STORE_BACKEND", "db")
}

// ObjectStorePath is the root directory for the filesystem backend.
func ObjectStorePath() string {
	return getEnv("OBJECT_STORE_PATH", "./data/objects")
}

func MaxSnapshotBytes() int64 {
	return getEnvInt64("MAX_SNAPSHOT_BYTES", DefaultMaxSnapshotBytes)
}

func StoreTimeout() time.Duration {
	return getEnvDuration("STORE_TIMEOUT", DefaultStoreTimeout)
}

func JWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

func JWTRefreshSecret() string {
	if v := os.Getenv("JWT_REFRESH_SECRET"); v != "" {
		return v
	}
	// fall back to the access secret so a single-secret setup still works
	return os.Getenv("JWT_SECRET")
}

func AccessTokenTTL() time.Duration {
	return getEnvDuration("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL)
}

func RefreshTokenTTL() time.Duration {
	return getEnvDuration("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL)
}

func InvitationTTL() time.Duration {
	return getEnvDuration("INVITATION_TTL", DefaultInvitationTTL)
}

// S3Bucket and S3Region configure the s3 object store backend.
func S3Bucket() string {
	return os.Getenv("S3_BUCKET")
}

func S3Region() string {
	return getEnv("S3_REGION", "us-east-1")
}

// ResendAPIKey enables the resend mailer when set.
func ResendAPIKey() string {
	return os.Getenv("RESEND_API_KEY")
}

func MailFrom() string {
	return getEnv("MAIL_FROM", "inkvault@localhost")
}

// SMTPAddr enables the smtp mailer when set, e.g. "localhost:25".
func SMTPAddr() string {
	return os.Getenv("SMTP_ADDR")
}

func InstanceName() string {
	return getEnv("INSTANCE_NAME", "inkvault")
}
