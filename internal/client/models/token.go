package models

import (
	"strconv"
	"strings"
	"time"
)

// OfflineTokenPrefix marks tokens minted on the device.
const OfflineTokenPrefix = "offline_"

// NewOfflineToken builds offline_<email>_<unix millis>.
func NewOfflineToken(email string, now time.Time) string {
	return OfflineTokenPrefix + email + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// IsOfflineToken reports whether token was minted locally.
func IsOfflineToken(token string) bool {
	return strings.HasPrefix(token, OfflineTokenPrefix)
}

// EmailFromOfflineToken recovers the owning email. The timestamp is taken
// after the last underscore so emails containing "_" survive.
func EmailFromOfflineToken(token string) (string, bool) {
	if !IsOfflineToken(token) {
		return "", false
	}
	rest := strings.TrimPrefix(token, OfflineTokenPrefix)
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", false
	}
	if _, err := strconv.ParseInt(rest[i+1:], 10, 64); err != nil {
		return "", false
	}
	return rest[:i], true
}
