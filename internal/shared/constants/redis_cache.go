package constants

import (
	"fmt"
	"time"
)

// Redis keys and TTLs.
// Pattern: fvivu:{module}:{operation}:{identifier}:{params?}

const (
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute
)

const (
	CACHE_PREFIX = "fvivu"
)

// ================== TOURS MODULE ==================

const (
	CACHE_KEY_TOURS_LIST       = CACHE_PREFIX + ":tours:list"              // + :page:X:limit:Y:search:Z
	CACHE_KEY_TOUR_DETAIL      = CACHE_PREFIX + ":tours:detail:uuid:"      // + tour-id
	CACHE_KEY_TOUR_START_DATES = CACHE_PREFIX + ":tours:start_dates:uuid:" // + tour-id
)

const (
	TTL_TOUR_LIST        = TTL_SEMI_STATIC_QUICK  // 15 minutes
	TTL_TOUR_DETAIL      = TTL_SEMI_STATIC_MEDIUM // 2 hours
	TTL_TOUR_START_DATES = TTL_SEMI_STATIC_MEDIUM // 2 hours
)

// ================== PAYMENTS MODULE ==================

const (
	LOCK_KEY_PAYMENT_EVENT = CACHE_PREFIX + ":payments:lock:event:" // + provider-event-id
)

// ================== RATE LIMIT ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:"
)

// ================== INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_TOURS_LIST = CACHE_KEY_TOURS_LIST + ":*"
)

// ================== HELPER FUNCTIONS ==================

// BuildTourListKey -> "fvivu:tours:list:page:1:limit:10:search:ha long"
func BuildTourListKey(page, limit int, search string) string {
	key := fmt.Sprintf("%s:page:%d:limit:%d", CACHE_KEY_TOURS_LIST, page, limit)
	if search != "" {
		key += ":search:" + search
	}
	return key
}

func BuildTourDetailKey(tourID string) string {
	return CACHE_KEY_TOUR_DETAIL + tourID
}

func BuildTourStartDatesKey(tourID string) string {
	return CACHE_KEY_TOUR_START_DATES + tourID
}

func BuildPaymentEventLockKey(eventID string) string {
	return LOCK_KEY_PAYMENT_EVENT + eventID
}
