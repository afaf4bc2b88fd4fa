package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Profile carries the monetization settings for one owner. The cost
// multiplier marks up presented real-cost figures only; stored transaction
// costs stay unmultiplied.
type Profile struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	OwnerID        snowflake.ID `json:"owner_id" gorm:"column:owner_id;not null;uniqueIndex:ux_account_profiles_owner"`
	CostMultiplier float64      `json:"cost_multiplier" gorm:"not null;default:1.5"`
	Privileged     bool         `json:"privileged" gorm:"not null;default:false"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Profile) TableName() string { return "account_profiles" }
