package friendserver

import (
	"testing"
	"time"
)

func TestCampaignDelayMatchesDocumentedSequence(t *testing.T) {
	t.Parallel()

	want := []int{30, 30, 32, 35, 44, 66, 121, 258, 603, 1466}
	for f, wantSeconds := range want {
		got := campaignDelay(f, 10)
		if got != time.Duration(wantSeconds)*time.Second {
			t.Errorf("campaignDelay(%d, 10) = %v, want %ds", f, got, wantSeconds)
		}
	}
}

func TestCampaignDelayAtOrPastGoalIsMinimal(t *testing.T) {
	t.Parallel()

	if got := campaignDelay(10, 10); got != 30*time.Second {
		t.Errorf("campaignDelay(10, 10) = %v, want 30s", got)
	}
	if got := campaignDelay(15, 10); got != 30*time.Second {
		t.Errorf("campaignDelay(15, 10) = %v, want 30s", got)
	}
}
