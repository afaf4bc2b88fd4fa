package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CostRate is an admin override row for the pricing catalog. Provider, Model
// and Variant narrow the match; empty values act as wildcards at their tier.
type CostRate struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ActionType string       `json:"action_type" gorm:"type:text;not null;uniqueIndex:ux_cost_rates_key,priority:1"`
	Provider   string       `json:"provider" gorm:"type:text;not null;default:'';uniqueIndex:ux_cost_rates_key,priority:2"`
	Model      string       `json:"model" gorm:"type:text;not null;default:'';uniqueIndex:ux_cost_rates_key,priority:3"`
	Variant    string       `json:"variant" gorm:"type:text;not null;default:'';uniqueIndex:ux_cost_rates_key,priority:4"`
	CreditCost int64        `json:"credit_cost" gorm:"not null;default:0"`
	RealCost   float64      `json:"real_cost" gorm:"not null;default:0"`
	Active     bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CostRate) TableName() string { return "cost_rates" }
