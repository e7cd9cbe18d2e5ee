package gas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() EstimationRequest {
	return EstimationRequest{
		CurrentGasPrice:   20,
		NetworkLoad:       LoadMedium,
		TokenSymbol:       "$FLOW",
		UserWalletAddress: "0xBEEF...dEAD",
	}
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	req := validRequest()
	require.NoError(t, req.Validate())
}

func TestValidateDefaultsMissingLoadToMedium(t *testing.T) {
	req := validRequest()
	req.NetworkLoad = ""

	require.NoError(t, req.Validate())
	assert.Equal(t, LoadMedium, req.NetworkLoad)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *EstimationRequest)
	}{
		{"zero gas price", func(r *EstimationRequest) { r.CurrentGasPrice = 0 }},
		{"negative gas price", func(r *EstimationRequest) { r.CurrentGasPrice = -3 }},
		{"unknown network load", func(r *EstimationRequest) { r.NetworkLoad = "Extreme" }},
		{"missing token symbol", func(r *EstimationRequest) { r.TokenSymbol = "" }},
		{"missing wallet address", func(r *EstimationRequest) { r.UserWalletAddress = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}
