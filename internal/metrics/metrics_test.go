package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(body)
}

func TestHandler_ExposesObservations(t *testing.T) {
	ObserveAnalysis(true)
	ObserveAnalysis(false)
	ObserveOutcome("surfaced")
	ObservePattern("spiral", "gold")
	ObserveDifficulty(42)
	SetActiveSessions(3)

	body := scrape(t)
	for _, want := range []string{
		`flicktrainer_analyses_total{result="ok"}`,
		`flicktrainer_analyses_total{result="rejected"}`,
		`flicktrainer_recommendations_total{outcome="surfaced"}`,
		`flicktrainer_patterns_generated_total{family="spiral",tier="gold"}`,
		`flicktrainer_live_difficulty_bucket{le="50"}`,
		`flicktrainer_active_sessions 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
