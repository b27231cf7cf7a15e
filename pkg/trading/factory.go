package trading

import (
	"fmt"
)

// Provider names accepted by the factory
const (
	ProviderSimulation = "simulation"
	ProviderBinance    = "binance"
)

// GatewayFactory creates exchange gateways based on configuration
type GatewayFactory struct{}

// NewGatewayFactory creates a new factory
func NewGatewayFactory() *GatewayFactory {
	return &GatewayFactory{}
}

// CreateGateway creates a gateway based on the configuration
func (f *GatewayFactory) CreateGateway(config interface{}) (Gateway, error) {
	var providerType string

	// Type assert to get provider type
	switch c := config.(type) {
	case ExecutionConfig:
		providerType = c.ProviderType
	case SimulationConfig:
		providerType = c.ProviderType
	case LiveConfig:
		providerType = c.ProviderType
	default:
		return nil, fmt.Errorf("unknown configuration type %T", config)
	}

	switch providerType {
	case ProviderSimulation:
		simConfig, ok := config.(SimulationConfig)
		if !ok {
			return nil, fmt.Errorf("invalid configuration for simulation gateway")
		}
		return NewPaperGateway(simConfig), nil

	case ProviderBinance:
		liveConfig, ok := config.(LiveConfig)
		if !ok {
			return nil, fmt.Errorf("invalid configuration for binance gateway")
		}
		gateway, err := NewBinanceGateway(liveConfig)
		if err != nil {
			return nil, err
		}
		return gateway, nil

	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", providerType)
	}
}
