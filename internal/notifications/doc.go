// Package notifications announces finished generations via ntfy.
//
// NewService returns an ntfy-backed Service when `[notifications] ntfy_topic`
// is set and a no-op otherwise, so callers never branch on configuration.
package notifications
