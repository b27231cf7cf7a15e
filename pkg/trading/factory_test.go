package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayFactory(t *testing.T) {
	factory := NewGatewayFactory()

	t.Run("simulation", func(t *testing.T) {
		gw, err := factory.CreateGateway(SimulationConfig{
			ExecutionConfig: ExecutionConfig{ProviderType: ProviderSimulation},
		})
		require.NoError(t, err)
		assert.IsType(t, &PaperGateway{}, gw)
	})

	t.Run("binance", func(t *testing.T) {
		gw, err := factory.CreateGateway(LiveConfig{
			ExecutionConfig: ExecutionConfig{ProviderType: ProviderBinance},
			RESTURL:         "https://testnet.binancefuture.com",
		})
		require.NoError(t, err)
		assert.IsType(t, &BinanceGateway{}, gw)
	})

	t.Run("provider and config mismatch", func(t *testing.T) {
		_, err := factory.CreateGateway(SimulationConfig{
			ExecutionConfig: ExecutionConfig{ProviderType: ProviderBinance},
		})
		assert.Error(t, err)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := factory.CreateGateway(ExecutionConfig{ProviderType: "bybit"})
		assert.Error(t, err)
	})

	t.Run("unknown config type", func(t *testing.T) {
		_, err := factory.CreateGateway("binance")
		assert.Error(t, err)
	})
}
