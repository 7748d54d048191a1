package rank

import (
	"testing"

	"leadmart-engine/internal/domain"
)

func TestScore_Identical(t *testing.T) {
	cases := []string{"solar panel", "Solar Panel", "  solar   panel  ", "x"}
	for _, c := range cases {
		if got := Score(c, c); got != 100 {
			t.Errorf("Score(%q, %q) = %d, want 100", c, c, got)
		}
	}
}

func TestScore_CaseAndWhitespaceInsensitive(t *testing.T) {
	if got := Score("Solar Panel", "solar panel"); got != 100 {
		t.Errorf("got %d, want 100", got)
	}
	if got := Score("solar panel", "SOLAR  PANEL"); got != 100 {
		t.Errorf("got %d, want 100", got)
	}
}

func TestScore_SubstringScoresFull(t *testing.T) {
	if got := Score("solar panel", "Monocrystalline Solar Panel 540W"); got != 100 {
		t.Errorf("got %d, want 100", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	first := Score("solar panel", "polycrystalline module maker")
	for i := 0; i < 50; i++ {
		if got := Score("solar panel", "polycrystalline module maker"); got != first {
			t.Fatalf("run %d: got %d, want %d", i, got, first)
		}
	}
}

func TestScore_DisjointTokensLow(t *testing.T) {
	if got := Score("solar panel", "qwzx jkvb mnpf"); got >= 30 {
		t.Errorf("disjoint tokens scored %d, want < 30", got)
	}
}

func TestScore_EmptyInputs(t *testing.T) {
	if got := Score("", "anything"); got != 0 {
		t.Errorf("empty keyword scored %d, want 0", got)
	}
	if got := Score("keyword", "   "); got != 0 {
		t.Errorf("blank text scored %d, want 0", got)
	}
}

func TestScoreRecord_TitleHitDominates(t *testing.T) {
	s := WeightedScorer{}
	rec := domain.LeadRecord{
		Company: "Acme Exports",
		Title:   domain.PresentField("Industrial Solar Panel 450W"),
	}
	got := s.ScoreRecord("solar panel", rec)
	if got < 60 {
		t.Errorf("title substring hit scored %d, want >= 60", got)
	}
}

func TestScoreRecord_ContactBonuses(t *testing.T) {
	s := WeightedScorer{}
	bare := domain.LeadRecord{
		Company: "Acme Exports",
		Title:   domain.PresentField("Solar Panel"),
	}
	rich := bare
	rich.Phone = domain.PresentField("9876543210")
	rich.Email = domain.PresentField("sales@acme.example")
	rich.Address = domain.PresentField("Pune, Maharashtra")

	b, r := s.ScoreRecord("solar panel", bare), s.ScoreRecord("solar panel", rich)
	if r <= b {
		t.Errorf("contact fields should raise the score: bare=%d rich=%d", b, r)
	}
	if r > 100 {
		t.Errorf("score %d exceeds 100", r)
	}
}

func TestScoreRecord_CapAt100(t *testing.T) {
	s := WeightedScorer{}
	rec := domain.LeadRecord{
		Company: "Solar Panel Solar Panel Co",
		Title:   domain.PresentField("solar panel solar panel solar panel solar panel solar panel solar panel"),
		Phone:   domain.PresentField("9876543210"),
		Email:   domain.PresentField("a@b.example"),
		Address: domain.PresentField("Mumbai"),
	}
	if got := s.ScoreRecord("solar panel", rec); got != 100 {
		t.Errorf("got %d, want capped 100", got)
	}
}
