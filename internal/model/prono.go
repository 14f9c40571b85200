package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Prono struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	Title        string          `gorm:"size:200;not null" json:"title"`
	Sport        string          `gorm:"size:50" json:"sport"`
	Competition  string          `gorm:"size:100" json:"competition"`
	HomeTeam     string          `gorm:"size:100" json:"home_team"`
	AwayTeam     string          `gorm:"size:100" json:"away_team"`
	Prediction   string          `gorm:"type:text;not null" json:"prediction"`
	Analysis     string          `gorm:"type:text" json:"analysis"`
	Odds         decimal.Decimal `gorm:"type:decimal(8,2)" json:"odds"`
	RequiredTier string          `gorm:"size:20;default:free;index" json:"required_tier"` // free, basic, pro, vip
	Result       string          `gorm:"size:20" json:"result,omitempty"`                // won, lost, void
	IsPublished  bool            `gorm:"default:false;index" json:"is_published"`
	MatchDate    time.Time       `gorm:"not null;index" json:"match_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Prono) TableName() string {
	return "pronos"
}
