package parse

import "testing"

func TestParsePerformance(t *testing.T) {
	html := mustReadFixture(t, "performance.html")

	perf, err := ParsePerformance(html, 555)
	if err != nil {
		t.Fatalf("ParsePerformance: %v", err)
	}

	r1, ok := perf.PlayerRates[1]
	if !ok {
		t.Fatal("expected rates for player 1")
	}
	if r1.KPR != 0.82 || r1.DPR != 0.55 || r1.MKRating != 1.10 {
		t.Errorf("unexpected player 1 rates: %+v", r1)
	}

	r2, ok := perf.PlayerRates[2]
	if !ok {
		t.Fatal("expected rates for player 2")
	}
	if r2.KPR != 0 {
		t.Errorf("expected '-' display value to map to 0.0, got %v", r2.KPR)
	}

	if len(perf.KillMatrix) != 4 {
		t.Fatalf("expected 4 kill-matrix cells across 3 types, got %d", len(perf.KillMatrix))
	}
}

func TestRatingSchemaFromPerformance(t *testing.T) {
	label, err := ratingSchemaFromPerformance(`{"bars":[{"label":"KPR","value":0.1,"displayValue":"0.1"},{"label":"Rating 3.0","value":1.0,"displayValue":"1.0"}]}`)
	if err != nil {
		t.Fatalf("ratingSchemaFromPerformance: %v", err)
	}
	if label != "Rating 3.0" {
		t.Errorf("expected last bar label, got %q", label)
	}
}
