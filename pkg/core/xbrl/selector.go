package xbrl

import (
	"strings"
	"time"
)

// FramePreference steers selection between quarter-to-date, year-to-date and
// fiscal-year aggregation frames for flow metrics.
type FramePreference string

const (
	FrameAny FramePreference = "ANY"
	FrameQTD FramePreference = "QTD"
	FrameYTD FramePreference = "YTD"
	FrameFY  FramePreference = "FY"
)

// ParseFramePreference maps user-facing period labels onto a preference.
// Unknown labels fall back to ANY.
func ParseFramePreference(s string) FramePreference {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qtd", "quarter", "quarterly", "q":
		return FrameQTD
	case "ytd":
		return FrameYTD
	case "fy", "annual", "year":
		return FrameFY
	default:
		return FrameAny
	}
}

// frameRank scores an item's frame label against the requested preference.
// Lower is better; unlabeled frames always rank worst.
func frameRank(frame string, pref FramePreference) int {
	if frame == "" {
		return 3
	}
	f := strings.ToUpper(frame)
	ytdQ := strings.Contains(f, "YTD") && strings.Contains(f, "Q")
	qtd := strings.Contains(f, "QTD")
	hasQ := strings.Contains(f, "Q")
	fy := strings.Contains(f, "FY") || strings.Contains(f, "CY")

	switch pref {
	case FrameYTD:
		switch {
		case ytdQ:
			return 0
		case qtd || hasQ:
			return 1
		case fy:
			return 2
		}
	case FrameQTD:
		switch {
		case qtd || (hasQ && !ytdQ):
			return 0
		case ytdQ:
			return 1
		case fy:
			return 2
		}
	case FrameFY:
		switch {
		case fy:
			return 0
		case ytdQ:
			return 1
		case qtd || hasQ:
			return 2
		}
	default: // FrameAny
		switch {
		case ytdQ:
			return 0
		case qtd || hasQ:
			return 1
		case fy:
			return 2
		}
	}
	return 3
}

// itemDate converts an item's period end (or, failing that, filed date) to a
// sortable time. Unparseable dates sort to the beginning of time.
func itemDate(s, fallback string) time.Time {
	if s == "" {
		s = fallback
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SelectBestItem reduces a tag's reported items to the single best one.
//
// Ordering, most significant first: later period end date; 10-Q/10-K forms
// over everything else; frame score under pref (flow metrics only: with
// preferQuarterly false the frame is ignored and end date dominates, since
// balance-sheet values are point-in-time); later filed date; finally input
// order. Returns nil for an empty list.
func SelectBestItem(items []FactItem, preferQuarterly bool, pref FramePreference) *FactItem {
	if len(items) == 0 {
		return nil
	}

	type scored struct {
		date      time.Time
		formOK    bool
		frameRank int
		filed     time.Time
	}

	score := func(it FactItem) scored {
		form := strings.ToUpper(it.Form)
		s := scored{
			date:   itemDate(it.End, it.Filed),
			formOK: form == "10-Q" || form == "10-K",
			filed:  itemDate(it.Filed, ""),
		}
		if preferQuarterly {
			s.frameRank = frameRank(it.Frame, pref)
		} else {
			s.frameRank = 2
		}
		return s
	}

	best := 0
	bestScore := score(items[0])
	for i := 1; i < len(items); i++ {
		s := score(items[i])
		if betterScore(s.date, s.formOK, s.frameRank, s.filed,
			bestScore.date, bestScore.formOK, bestScore.frameRank, bestScore.filed) {
			best = i
			bestScore = s
		}
	}
	return &items[best]
}

func betterScore(aDate time.Time, aForm bool, aFrame int, aFiled time.Time,
	bDate time.Time, bForm bool, bFrame int, bFiled time.Time) bool {
	if !aDate.Equal(bDate) {
		return aDate.After(bDate)
	}
	if aForm != bForm {
		return aForm
	}
	if aFrame != bFrame {
		return aFrame < bFrame
	}
	// Exact ties fall back to the later filed date, then stable input order.
	return aFiled.After(bFiled)
}
