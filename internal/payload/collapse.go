package payload

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CollapseKeyFunc produces the collapse key attached to a broadcast's
// Android envelope. The upstream consumer semantics were never pinned down
// (grouping tag vs. duplicate collapsing), so the strategy is injected
// rather than hard-coded.
type CollapseKeyFunc func(category string) string

// TimestampCollapseKey matches the historically observed key shape:
// every send gets a fresh key, so nothing ever collapses.
func TimestampCollapseKey(category string) string {
	return fmt.Sprintf("wesell_%s_%d", category, time.Now().UnixMilli())
}

// UUIDCollapseKey is an alternative strategy with the same
// nothing-collapses behavior but no clock dependency.
func UUIDCollapseKey(category string) string {
	return fmt.Sprintf("wesell_%s_%s", category, uuid.NewString())
}

// CategoryCollapseKey collapses rapid duplicate sends of the same
// category into one displayed notification.
func CategoryCollapseKey(category string) string {
	return "wesell_" + category
}
