package marketdata

import (
	"encoding/json"
	"testing"

	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProviderRegistryTestSuite struct {
	suite.Suite
}

func TestProviderRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderRegistryTestSuite))
}

func (suite *ProviderRegistryTestSuite) TestGetSupportedProviders() {
	suite.Equal([]string{"binance", "polygon", "tinvest"}, GetSupportedProviders())
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo_TInvest() {
	info, err := GetProviderInfo("tinvest")

	suite.NoError(err)
	suite.Equal("tinvest", info.Name)
	suite.Equal("T-Invest", info.DisplayName)
	suite.True(info.RequiresAuth)
	suite.Equal([]string{"TINKOFF_TOKEN", "INVEST_TOKEN"}, info.CredentialEnv)
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo_Polygon() {
	info, err := GetProviderInfo("polygon")

	suite.NoError(err)
	suite.Equal("Polygon.io", info.DisplayName)
	suite.True(info.RequiresAuth)
	suite.NotEmpty(info.Description)
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo_Binance() {
	info, err := GetProviderInfo("binance")

	suite.NoError(err)
	suite.Equal("Binance", info.DisplayName)
	suite.False(info.RequiresAuth)
	suite.Empty(info.CredentialEnv)
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo_InvalidProvider() {
	_, err := GetProviderInfo("invalid")

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
	suite.Contains(err.Error(), "unsupported provider")
}

func (suite *ProviderRegistryTestSuite) TestJobFileSchema() {
	schema, err := JobFileSchema()
	suite.Require().NoError(err)

	var schemaMap map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &schemaMap))

	suite.Equal("object", schemaMap["type"])

	properties, ok := schemaMap["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "provider")
	suite.Contains(properties, "sink")
	suite.Contains(properties, "jobs")

	jobs := properties["jobs"].(map[string]any)
	suite.Equal("array", jobs["type"])

	items := jobs["items"].(map[string]any)
	itemProps := items["properties"].(map[string]any)
	suite.Contains(itemProps, "instrument")
	suite.Contains(itemProps, "granularities")
	suite.Contains(items["required"], "instrument")
}
