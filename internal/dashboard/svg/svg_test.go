package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(0, 0, []float64{3, 0, 12}, []string{"Jan", "Fev", "Mar"}, BarOpts{
		Title:   "Calibrações 2024",
		Caption: "Calibrações",
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if got := strings.Count(output, "<rect"); got != 3 {
		t.Fatalf("expected 3 bars, got %d", got)
	}
	if !strings.Contains(output, "Calibrações Mar: 12") {
		t.Fatalf("expected bar tooltip, got %s", output)
	}
}

func TestBarsRejectsMismatchedInput(t *testing.T) {
	if _, err := Bars(400, 200, []float64{1}, []string{"a", "b"}, BarOpts{}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := Bars(400, 200, []float64{-1}, []string{"a"}, BarOpts{}); err == nil {
		t.Fatalf("expected negative value error")
	}
}

func TestNiceStep(t *testing.T) {
	cases := map[float64]float64{0: 1, 6: 1, 7: 2, 40: 10, 130: 50}
	for maxVal, want := range cases {
		if got := niceStep(maxVal, 6); got != want {
			t.Fatalf("niceStep(%v) = %v, want %v", maxVal, got, want)
		}
	}
}

func TestDoughnutEscapesLabelsAndShowsShare(t *testing.T) {
	html, err := Doughnut(400, 320, []Slice{
		{Label: "Emerson", Value: 3},
		{Label: "<Yokogawa>", Value: 1},
	}, DoughnutOpts{Title: "Fabricantes"})
	if err != nil {
		t.Fatalf("doughnut renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "<path") != 2 {
		t.Fatalf("expected two arcs, got %s", output)
	}
	if strings.Contains(output, "<Yokogawa>") {
		t.Fatalf("label not escaped")
	}
	if !strings.Contains(output, "(75.0%)") {
		t.Fatalf("expected share in tooltip, got %s", output)
	}
}

func TestDoughnutSingleSliceIsFullRing(t *testing.T) {
	html, err := Doughnut(400, 320, []Slice{{Label: "ABB", Value: 5}}, DoughnutOpts{})
	if err != nil {
		t.Fatalf("doughnut renderer error: %v", err)
	}
	if strings.Contains(string(html), "<path") {
		t.Fatalf("single slice should render as a circle")
	}
}

func TestDoughnutRejectsEmpty(t *testing.T) {
	if _, err := Doughnut(400, 320, nil, DoughnutOpts{}); err == nil {
		t.Fatalf("expected error for no slices")
	}
	if _, err := Doughnut(400, 320, []Slice{{Label: "x"}}, DoughnutOpts{}); err == nil {
		t.Fatalf("expected error for zero total")
	}
}
