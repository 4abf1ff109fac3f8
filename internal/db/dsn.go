package db

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// BuildConnectionString renders config as a postgresql:// URI for pgx.
func BuildConnectionString(config *ingest.ConnectionConfig) string {
	u := &url.URL{
		Scheme: "postgresql",
		Host:   net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Path:   "/" + config.Database,
	}

	if config.Username != "" {
		if config.Password != "" {
			u.User = url.UserPassword(config.Username, config.Password)
		} else {
			u.User = url.User(config.Username)
		}
	}

	query := url.Values{}
	if config.SSLMode != "" {
		query.Set("sslmode", config.SSLMode)
	}
	appName := config.AppName
	if appName == "" {
		appName = DefaultAppName
	}
	query.Set("application_name", appName)
	if config.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(config.ConnectTimeout.Seconds())))
	}

	u.RawQuery = query.Encode()
	return u.String()
}

// RedactedConnectionString is BuildConnectionString with the password masked,
// suitable for logs.
func RedactedConnectionString(config *ingest.ConnectionConfig) string {
	redacted := *config
	if redacted.Password != "" {
		redacted.Password = "xxxxx"
	}
	return BuildConnectionString(&redacted)
}

// Describe returns host:port/database for messages.
func Describe(config *ingest.ConnectionConfig) string {
	if config.AuthMethod == ingest.AuthMethodGoogleIAM {
		return fmt.Sprintf("%s/%s", config.GoogleInstance, config.Database)
	}
	return fmt.Sprintf("%s/%s", net.JoinHostPort(config.Host, strconv.Itoa(config.Port)), config.Database)
}
