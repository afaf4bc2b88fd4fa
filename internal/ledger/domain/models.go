package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TransactionType tags what a ledger entry paid for.
type TransactionType string

const (
	TypeImage      TransactionType = "image"
	TypeVideo      TransactionType = "video"
	TypeVoiceover  TransactionType = "voiceover"
	TypeScene      TransactionType = "scene"
	TypeCharacter  TransactionType = "character"
	TypePrompt     TransactionType = "prompt"
	TypeMusic      TransactionType = "music"
	TypePurchase   TransactionType = "purchase"
	TypeBonus      TransactionType = "bonus"
	TypeAdjustment TransactionType = "admin_adjustment"
	TypeOther      TransactionType = "other"
)

var transactionTypes = map[TransactionType]bool{
	TypeImage:      true,
	TypeVideo:      true,
	TypeVoiceover:  true,
	TypeScene:      true,
	TypeCharacter:  true,
	TypePrompt:     true,
	TypeMusic:      true,
	TypePurchase:   true,
	TypeBonus:      true,
	TypeAdjustment: true,
	TypeOther:      true,
}

// ValidTransactionType reports whether the tag is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	return transactionTypes[t]
}

// Balance is the per-owner singleton credit counter. Mutated only by the
// ledger service; balance stays equal to total_earned - total_spent.
type Balance struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	OwnerID       snowflake.ID `json:"owner_id" gorm:"column:owner_id;not null;uniqueIndex:ux_credit_balances_owner"`
	Balance       int64        `json:"balance" gorm:"not null;default:0"`
	TotalSpent    int64        `json:"total_spent" gorm:"not null;default:0"`
	TotalEarned   int64        `json:"total_earned" gorm:"not null;default:0"`
	TotalRealCost float64      `json:"total_real_cost" gorm:"not null;default:0"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	// Offline marks a stale copy served while storage is unreachable.
	// Never persisted.
	Offline bool `json:"offline,omitempty" gorm:"-"`
}

// TableName sets the database table name.
func (Balance) TableName() string { return "credit_balances" }

// TransactionMetadata is the closed set of optional per-transaction fields.
// Extra keeps unknown upstream fields round-trippable.
type TransactionMetadata struct {
	IsRegeneration  bool              `json:"is_regeneration,omitempty"`
	Prepaid         bool              `json:"prepaid,omitempty"`
	SceneID         string            `json:"scene_id,omitempty"`
	DurationSeconds float64           `json:"duration_seconds,omitempty"`
	Resolution      string            `json:"resolution,omitempty"`
	AspectRatio     string            `json:"aspect_ratio,omitempty"`
	Extra           datatypes.JSONMap `json:"extra,omitempty"`
}

// Value implements driver.Valuer so the metadata persists as JSON.
func (m TransactionMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *TransactionMetadata) Scan(value any) error {
	if value == nil {
		*m = TransactionMetadata{}
		return nil
	}
	switch typed := value.(type) {
	case []byte:
		return json.Unmarshal(typed, m)
	case string:
		return json.Unmarshal([]byte(typed), m)
	default:
		return errors.New("unsupported metadata column type")
	}
}

// Transaction is one immutable ledger entry. Amount is negative for spends,
// positive for credits, zero for cost-tracking-only entries. RealCost is the
// unmultiplied provider cost.
type Transaction struct {
	ID          snowflake.ID        `json:"id" gorm:"primaryKey"`
	OwnerID     snowflake.ID        `json:"owner_id" gorm:"column:owner_id;not null;index"`
	Amount      int64               `json:"amount" gorm:"not null"`
	Type        TransactionType     `json:"type" gorm:"type:text;not null;index"`
	Provider    string              `json:"provider,omitempty" gorm:"type:text"`
	Model       string              `json:"model,omitempty" gorm:"type:text"`
	RealCost    *float64            `json:"real_cost,omitempty"`
	ProjectID   snowflake.ID        `json:"project_id,omitempty" gorm:"column:project_id;index"`
	Description string              `json:"description,omitempty" gorm:"type:text"`
	Metadata    TransactionMetadata `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "credit_transactions" }
