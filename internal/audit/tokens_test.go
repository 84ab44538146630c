package audit

import "testing"

func TestEstimateTokens(t *testing.T) {
	n, err := EstimateTokens("Claim ID: 42\nTotal Charge: $310.00\n")
	if err != nil {
		t.Fatalf("EstimateTokens() error = %v", err)
	}
	if n <= 0 {
		t.Errorf("EstimateTokens() = %d, want positive", n)
	}

	longer, err := EstimateTokens(FormatPrompt(sampleBundle()))
	if err != nil {
		t.Fatalf("EstimateTokens() error = %v", err)
	}
	if longer <= n {
		t.Errorf("full prompt estimate %d should exceed fragment estimate %d", longer, n)
	}
}
