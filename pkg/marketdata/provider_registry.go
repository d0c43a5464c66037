package marketdata

import (
	"sort"

	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/utils"
)

// ProviderInfo contains metadata about a candle provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	// CredentialEnv lists the environment variables the credential is read from, in priority order.
	CredentialEnv []string `json:"credentialEnv,omitempty"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderTInvest: {
		Name:          string(provider.ProviderTInvest),
		DisplayName:   "T-Invest",
		Description:   "Brokerage market data API with historical candles for MOEX instruments addressed by FIGI or instrument uid",
		RequiresAuth:  true,
		CredentialEnv: []string{"TINKOFF_TOKEN", "INVEST_TOKEN"},
	},
	provider.ProviderPolygon: {
		Name:          string(provider.ProviderPolygon),
		DisplayName:   "Polygon.io",
		Description:   "US stock market data provider with historical OHLCV aggregates",
		RequiresAuth:  true,
		CredentialEnv: []string{"POLYGON_API_KEY"},
	},
	provider.ProviderBinance: {
		Name:         string(provider.ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange with public klines for crypto trading pairs",
		RequiresAuth: false,
	},
}

// GetSupportedProviders returns the names of all supported providers, sorted.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// JobFileSchema returns the JSON schema of the batch job file.
func JobFileSchema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	schema, err := utils.GetSchemaFromConfig(&JobFile{})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnknown, "failed to generate job file schema", err)
	}

	return schema, nil
}
