package rank

import (
	"strings"

	"leadmart-engine/internal/domain"
)

// Scorer computes the relevance of a lead against a search keyword.
type Scorer interface {
	ScoreRecord(keyword string, r domain.LeadRecord) int
}

// WeightedScorer weights the product title most, the company name second,
// and gives small bonuses for reachable contact details.
type WeightedScorer struct{}

func (WeightedScorer) ScoreRecord(keyword string, r domain.LeadRecord) int {
	kw := normalize(keyword)
	if kw == "" {
		return 0
	}

	score := 0

	title := normalize(r.Title.Export())
	if title != "" && strings.Contains(title, kw) {
		score += 60
		// repeated mentions nudge the score, capped
		extra := strings.Count(title, kw) * 2
		if extra > 10 {
			extra = 10
		}
		score += extra
	} else {
		score += Score(kw, title) * 60 / 100
	}

	company := normalize(r.Company)
	if company != "" && strings.Contains(company, kw) {
		score += 30
	} else {
		score += Score(kw, company) * 30 / 100
	}

	if r.Phone.Present() {
		score += 3
	}
	if r.Email.Present() {
		score += 2
	}
	if r.Address.Present() {
		score += 5
	}

	return clamp(score)
}
