package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
		SubscriptionStatusEnded,
	}
	allowed := map[SubscriptionStatus]map[SubscriptionStatus]bool{
		SubscriptionStatusActive:   {SubscriptionStatusPastDue: true, SubscriptionStatusCanceled: true, SubscriptionStatusEnded: true},
		SubscriptionStatusPastDue:  {SubscriptionStatusActive: true, SubscriptionStatusCanceled: true, SubscriptionStatusEnded: true},
		SubscriptionStatusTrialing: {SubscriptionStatusActive: true, SubscriptionStatusCanceled: true},
		SubscriptionStatusCanceled: {SubscriptionStatusEnded: true},
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(SubscriptionStatusPastDue))
	assert.False(t, IsValidStatus("ACTIVE"))
	assert.False(t, IsValidStatus(""))
}
