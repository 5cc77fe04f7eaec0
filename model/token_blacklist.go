package model

import "time"

// JWTTokenBlacklist stores revoked JWT ids until the token would have expired anyway
type JWTTokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TokenID   string    `gorm:"column:token_id;uniqueIndex;not null;type:varchar(64)" json:"token_id"`
	UserID    string    `gorm:"type:uuid;index" json:"user_id"`
	Reason    string    `gorm:"type:varchar(100)" json:"reason"` // logout, security, manual_revoke
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for JWTTokenBlacklist
func (JWTTokenBlacklist) TableName() string {
	return "jwt_token_blacklist"
}
