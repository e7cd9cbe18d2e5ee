package gas

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks input rejected at the validation boundary, before
// any model call.
var ErrInvalidRequest = errors.New("invalid gas estimation request")

type NetworkLoad string

const (
	LoadLow    NetworkLoad = "Low"
	LoadMedium NetworkLoad = "Medium"
	LoadHigh   NetworkLoad = "High"
)

type EstimationRequest struct {
	CurrentGasPrice   float64     `json:"currentGasPrice"`
	NetworkLoad       NetworkLoad `json:"networkLoad"`
	TokenSymbol       string      `json:"tokenSymbol"`
	UserWalletAddress string      `json:"userWalletAddress"`
}

// Validate is the typed input boundary in front of the model call.
func (r *EstimationRequest) Validate() error {
	if r.CurrentGasPrice <= 0 {
		return fmt.Errorf("currentGasPrice must be positive, got %v", r.CurrentGasPrice)
	}
	switch r.NetworkLoad {
	case LoadLow, LoadMedium, LoadHigh:
	case "":
		r.NetworkLoad = LoadMedium
	default:
		return fmt.Errorf("networkLoad must be Low, Medium or High, got %q", r.NetworkLoad)
	}
	if r.TokenSymbol == "" {
		return fmt.Errorf("tokenSymbol is required")
	}
	if r.UserWalletAddress == "" {
		return fmt.Errorf("userWalletAddress is required")
	}
	return nil
}

// Estimation is advisory text from the model. It never feeds back into claim
// eligibility.
type Estimation struct {
	EstimatedGasFee    float64 `json:"estimatedGasFee"`
	Prediction         string  `json:"prediction"`
	OptimalClaimWindow string  `json:"optimalClaimWindow"`
	Reasoning          string  `json:"reasoning"`
}
