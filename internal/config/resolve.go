package config

import (
	"fmt"
	"net/url"

	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// Environment variables and settings keys consulted by the resolvers.
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvDBURL         = "DB_URL"
	EnvTinkoffToken  = "TINKOFF_TOKEN"
	EnvInvestToken   = "INVEST_TOKEN"
	EnvPolygonAPIKey = "POLYGON_API_KEY"
)

// DatabaseParams are the discrete connection parameters of a PostgreSQL database.
type DatabaseParams struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// Complete reports whether every parameter is set.
func (p DatabaseParams) Complete() bool {
	return p.Host != "" && p.Port != "" && p.Database != "" && p.User != "" && p.Password != ""
}

// DSN builds a postgres URL. It returns "" unless every parameter is set.
func (p DatabaseParams) DSN() string {
	if !p.Complete() {
		return ""
	}

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(p.User, p.Password),
		Host:   fmt.Sprintf("%s:%s", p.Host, p.Port),
		Path:   "/" + p.Database,
	}

	return u.String()
}

// ResolveDatabaseDSN picks the database URL in priority order: explicit, discrete params,
// DATABASE_URL, DB_URL, then discovered settings files. It fails with
// ErrCodeInvalidConfiguration when nothing is configured.
func ResolveDatabaseDSN(explicit string, params DatabaseParams, startDir string) (string, error) {
	dsn := Chain(
		Value(explicit),
		Value(params.DSN()),
		Env(EnvDatabaseURL),
		Env(EnvDBURL),
		Discovered(startDir, EnvDatabaseURL),
		Discovered(startDir, EnvDBURL),
	)()

	if dsn.IsNone() {
		return "", errors.Newf(errors.ErrCodeInvalidConfiguration,
			"database url is not configured: pass --dsn, all of --db-host/--db-port/--db-name/--db-user/--db-password, or set %s",
			EnvDatabaseURL)
	}

	return dsn.Unwrap(), nil
}

// ResolveToken picks the credential of a provider: explicit first, then the environment,
// then discovered settings files. Binance needs no credential and resolves to "".
func ResolveToken(explicit string, providerType string, startDir string) (string, error) {
	var keys []string

	switch providerType {
	case "", "tinvest":
		keys = []string{EnvTinkoffToken, EnvInvestToken}
	case "polygon":
		keys = []string{EnvPolygonAPIKey}
	case "binance":
		return explicit, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unknown provider %q", providerType)
	}

	providers := []Provider{Value(explicit)}
	for _, key := range keys {
		providers = append(providers, Env(key))
	}

	for _, key := range keys {
		providers = append(providers, Discovered(startDir, key))
	}

	token := Chain(providers...)()
	if token.IsNone() {
		return "", errors.Newf(errors.ErrCodeInvalidConfiguration, "%s credential is not configured: pass --token or set %s", providerType, keys[0])
	}

	return token.Unwrap(), nil
}
