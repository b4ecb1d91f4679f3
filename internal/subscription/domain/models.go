// Package domain contains persistence models and the lifecycle rules for
// speaker subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus represents lifecycle states for a subscription. Only
// active subscriptions grant plan features and limits.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusEnded    SubscriptionStatus = "ended"
)

// Subscription links a speaker to a plan.
type Subscription struct {
	ID         snowflake.ID       `gorm:"primaryKey"`
	SpeakerID  snowflake.ID       `gorm:"column:speaker_id;not null;index"`
	PlanID     snowflake.ID       `gorm:"column:plan_id;not null;index"`
	Status     SubscriptionStatus `gorm:"type:text;not null"`
	StartedAt  time.Time          `gorm:"not null"`
	CanceledAt *time.Time         `gorm:""`
	EndedAt    *time.Time         `gorm:""`
	CreatedAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

var transitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusActive:   {SubscriptionStatusPastDue, SubscriptionStatusCanceled, SubscriptionStatusEnded},
	SubscriptionStatusPastDue:  {SubscriptionStatusActive, SubscriptionStatusCanceled, SubscriptionStatusEnded},
	SubscriptionStatusTrialing: {SubscriptionStatusActive, SubscriptionStatusCanceled},
	SubscriptionStatusCanceled: {SubscriptionStatusEnded},
}

// CanTransition reports whether a subscription may move from current to target.
func CanTransition(current, target SubscriptionStatus) bool {
	for _, allowed := range transitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

func IsValidStatus(status SubscriptionStatus) bool {
	switch status {
	case SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
		SubscriptionStatusEnded:
		return true
	default:
		return false
	}
}
