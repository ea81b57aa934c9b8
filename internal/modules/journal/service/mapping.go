package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kevinwong150/journalex-sub001/internal/models"
)

// Time-of-day buckets for the US cash session, on UTC wall clock
// (13:30–20:00 UTC regular hours; DST shifts are not compensated).
const (
	BucketPreMarket  = "pre_market"
	BucketOpenDrive  = "open_drive"
	BucketMidday     = "midday"
	BucketPowerHour  = "power_hour"
	BucketAfterHours = "after_hours"
)

func TimeBucket(t time.Time) string {
	minutes := t.UTC().Hour()*60 + t.UTC().Minute()
	switch {
	case minutes < 13*60+30:
		return BucketPreMarket
	case minutes < 14*60+30:
		return BucketOpenDrive
	case minutes < 18*60:
		return BucketMidday
	case minutes < 20*60:
		return BucketPowerHour
	default:
		return BucketAfterHours
	}
}

// chainBounds returns the open_position and close_position entries of a
// chain. A returned chain always carries exactly one of each.
func chainBounds(chain models.ActionChain) (open, closeEntry models.ChainEntry, ok bool) {
	if len(chain) < 2 {
		return models.ChainEntry{}, models.ChainEntry{}, false
	}
	open, okOpen := chain["1"]
	closeEntry, okClose := chain[strconv.Itoa(len(chain))]
	return open, closeEntry, okOpen && okClose
}

// ChainDuration is the span between the opening and closing executions.
func ChainDuration(chain models.ActionChain) (time.Duration, bool) {
	open, closeEntry, ok := chainBounds(chain)
	if !ok {
		return 0, false
	}
	openAt, okOpen := models.ParseTime(open.Timestamp)
	closedAt, okClose := models.ParseTime(closeEntry.Timestamp)
	if !okOpen || !okClose {
		return 0, false
	}
	return closedAt.Sub(openAt), true
}

// DedupKey identifies a trade record in the workspace: symbol plus the
// close instant at second granularity.
func DedupKey(item models.TradeItem) string {
	ts, ok := models.ParseTime(item.Datetime)
	if !ok {
		return item.Symbol()
	}
	return item.Symbol() + "@" + ts.Truncate(time.Second).Format(time.RFC3339)
}

// MapTradeProperties flattens one closing item and its reconstructed
// chain into the workspace's property map.
func MapTradeProperties(item models.TradeItem, chain models.ActionChain) map[string]string {
	props := map[string]string{
		"Symbol":     item.Symbol(),
		"Closed At":  item.Datetime,
		"Quantity":   strings.TrimSpace(item.Quantity),
		"Executions": strconv.Itoa(len(chain)),
	}
	if pl := strings.TrimSpace(item.RealizedPL); pl != "" {
		props["Realized P/L"] = pl
	}

	if d, ok := ChainDuration(chain); ok {
		props["Duration"] = d.String()
	}
	open, closeEntry, ok := chainBounds(chain)
	if ok {
		if openAt, parsed := models.ParseTime(open.Timestamp); parsed {
			props["Entry Bucket"] = TimeBucket(openAt)
		}
		if closedAt, parsed := models.ParseTime(closeEntry.Timestamp); parsed {
			props["Exit Bucket"] = TimeBucket(closedAt)
		}
	}

	props["Action Chain"] = renderChain(chain)
	return props
}

func renderChain(chain models.ActionChain) string {
	lines := make([]string, 0, len(chain))
	for i := 1; i <= len(chain); i++ {
		entry, ok := chain[strconv.Itoa(i)]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%d. %s %v", i, entry.Action, entry.Quantity)
		if entry.Price != nil {
			line += fmt.Sprintf(" @ %v", *entry.Price)
		}
		line += " (" + entry.Timestamp + ")"
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
