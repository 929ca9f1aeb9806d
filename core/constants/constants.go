package constants

import "time"

// Database pool defaults
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)

// Timeouts
const (
	DefaultTimeout       = 10 * time.Second
	ProviderCallTimeout  = 30 * time.Second
	ShutdownTimeout      = 15 * time.Second
	TokenRefreshLeeway   = 5 * time.Minute
	PublicSlotsCacheTTL  = 30 * time.Second
	AvailabilityCacheTTL = 5 * time.Minute
)

// Sync windows
const (
	SyncWindowDaysBack    = 30
	SyncWindowDaysForward = 30
)

// Mirror blocker events carry this fixed title so they are recognizable
// in any connected calendar without leaking the source event details.
const MirrorBlockerTitle = "[Mirror] Busy"

// Slot durations accepted for bookings (minutes).
var AllowedSlotDurations = []int{30, 60}

// Booking slot starts are normalized to this grid so the per-owner
// reservation uniqueness key stays stable under concurrent requests.
const SlotGridMinutes = 30
