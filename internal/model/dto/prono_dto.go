package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PronoRequest struct {
	Title        string          `json:"title" binding:"required,max=200"`
	Sport        string          `json:"sport"`
	Competition  string          `json:"competition"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Prediction   string          `json:"prediction" binding:"required"`
	Analysis     string          `json:"analysis"`
	Odds         decimal.Decimal `json:"odds"`
	RequiredTier string          `json:"required_tier"`
	Result       string          `json:"result"`
	IsPublished  bool            `json:"is_published"`
	MatchDate    time.Time       `json:"match_date" binding:"required"`
}

// PronoItem is a prono as seen by a given caller. Locked items have their
// prediction and analysis replaced.
type PronoItem struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Sport        string          `json:"sport"`
	Competition  string          `json:"competition"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Prediction   string          `json:"prediction"`
	Analysis     string          `json:"analysis"`
	Odds         decimal.Decimal `json:"odds"`
	RequiredTier string          `json:"required_tier"`
	Result       string          `json:"result,omitempty"`
	MatchDate    time.Time       `json:"match_date"`
	Locked       bool            `json:"locked"`
}
