package database

import "time"

// ModAction is one row in the relational audit trail. Every sanction, manual
// or automatic, is mirrored here in addition to the mod-log embed.
type ModAction struct {
	ID        uint   `gorm:"primaryKey"`
	GuildID   string `gorm:"column:guild_id;index"`
	UserID    string `gorm:"column:user_id;index"`
	Moderator string `gorm:"column:moderator"` // empty for auto-escalation
	Action    string `gorm:"column:action"`
	Violation string `gorm:"column:violation"`
	Severity  int    `gorm:"column:severity"`
	Tier      int    `gorm:"column:tier"`
	Reason    string `gorm:"column:reason"`
	CreatedAt time.Time
}

func (ModAction) TableName() string { return "mod_actions" }

type ServiceStatus struct {
	ServiceName   string    `gorm:"primaryKey;column:service_name"`
	Status        string    `gorm:"column:status"`
	LastHeartbeat time.Time `gorm:"column:last_heartbeat"`
	Details       string    `gorm:"column:details"`
}

func (ServiceStatus) TableName() string { return "service_status" }

// APIHealth accumulates platform API call counts per service.
type APIHealth struct {
	ServiceName        string    `gorm:"primaryKey;column:service_name"`
	TotalRequests      int64     `gorm:"column:total_requests"`
	SuccessfulRequests int64     `gorm:"column:successful_requests"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (APIHealth) TableName() string { return "api_health" }
