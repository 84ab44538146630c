package audit

import (
	"context"
	"testing"

	"github.com/tduong/medbill/internal/testutil"
)

// Replays a recorded inference exchange end to end through the dispatcher.
func TestRunAgainstRecordedEndpoint(t *testing.T) {
	rec, cleanup := testutil.NewVCRRecorder(t, "claim_audit")
	defer cleanup()

	b := sampleBundle()
	d := NewDispatcher(&stubSource{bundle: &b}, DefaultCatalog(),
		WithLogger(quietLogger()),
		WithHTTPClient(testutil.VCRHTTPClient(rec)),
	)

	res, err := d.Run(context.Background(), Request{
		ClaimID:  42,
		Endpoint: Endpoint{URL: "http://inference.local/invoke"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.ModelUsed != DefaultCatalog().Default().ID {
		t.Errorf("ModelUsed = %q", res.ModelUsed)
	}
	if res.FraudScore <= 0 {
		t.Errorf("recorded analysis names risk indicators, score = %d", res.FraudScore)
	}
	if res.ModelProvider != string(FamilyAnthropic) {
		t.Errorf("ModelProvider = %q", res.ModelProvider)
	}
}
