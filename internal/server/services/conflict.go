package services

import "time"

// ServerNewer reports whether the stored row carries a write the client
// has not observed yet: the stored updated_at is strictly newer than the
// client's last-pull watermark. The check is optimistic; two devices
// racing without an intervening pull can both pass it.
func ServerNewer(storedUpdatedAt time.Time, lastPulledAt int64) bool {
	return storedUpdatedAt.UnixMilli() > lastPulledAt
}
