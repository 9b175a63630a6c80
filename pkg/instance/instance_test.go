package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("CITYPULSE_INSTANCE_ID", "trigger-worker-7")
	if got := GetID(); got != "trigger-worker-7" {
		t.Fatalf("expected env id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("CITYPULSE_INSTANCE_ID", "")
	if got := GetID(); got == "" {
		t.Fatal("expected non-empty fallback id")
	}
}
