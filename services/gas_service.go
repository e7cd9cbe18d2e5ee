package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"tokenTapAPI/internal/types/gas"
)

// gasModel is the slice of the Gemini client the service needs.
type gasModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GasService produces advisory gas-fee forecasts. Output is model-generated
// text: fallible, non-deterministic and never consulted by claim
// eligibility.
type GasService struct {
	model gasModel
}

func NewGasService(client *genai.Client, modelName string) *GasService {
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	return &GasService{model: model}
}

// Estimate validates the input, runs the prompt and parses the structured
// response. Any failure comes back as an error for the caller to surface as
// a transient notification.
func (s *GasService) Estimate(ctx context.Context, req *gas.EstimationRequest) (*gas.Estimation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", gas.ErrInvalidRequest, err)
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildGasPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("gas estimation model call failed: %w", err)
	}

	raw, err := firstTextPart(resp)
	if err != nil {
		return nil, err
	}

	var est gas.Estimation
	if err := json.Unmarshal([]byte(raw), &est); err != nil {
		return nil, fmt.Errorf("gas estimation model returned malformed JSON: %w", err)
	}

	if est.EstimatedGasFee < 0 {
		return nil, fmt.Errorf("gas estimation model returned negative fee %v", est.EstimatedGasFee)
	}
	if est.Prediction == "" || est.OptimalClaimWindow == "" || est.Reasoning == "" {
		return nil, fmt.Errorf("gas estimation model returned incomplete advisory")
	}

	log.Printf("Gas estimation for %s: %.6f ETH, window %q", req.UserWalletAddress, est.EstimatedGasFee, est.OptimalClaimWindow)
	return &est, nil
}

func buildGasPrompt(req *gas.EstimationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a Gas Fee Analyst AI. Provide a smart gas fee estimation and a 24-hour prediction to help a user claim their %s tokens cost-effectively.\n\n", req.TokenSymbol)
	fmt.Fprintf(&b, "Current Conditions:\n- Current Gas Price: %v Gwei\n- Network Load: %s\n- User Wallet: %s\n\n", req.CurrentGasPrice, req.NetworkLoad, req.UserWalletAddress)
	b.WriteString(`Based on typical blockchain network congestion patterns (lower activity during UTC night, higher during US business hours), respond with a single JSON object with exactly these fields:
1. "estimatedGasFee": estimated gas fee in ETH for a standard claim transaction of 21,000 gas units. Formula: (21000 * currentGasPrice) / 1,000,000,000.
2. "prediction": a 24-hour forecast for gas price trends.
3. "optimalClaimWindow": the best time window (e.g. "Between 3:00 AM and 6:00 AM UTC") to claim in the next 24 hours.
4. "reasoning": a brief explanation for the recommendation, citing the current network load and typical daily patterns.

Be concise and provide actionable advice.`)
	return b.String()
}

func firstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text), nil
			}
		}
	}
	return "", fmt.Errorf("gas estimation model returned no text content")
}
