// Package stats computes spending analytics over stored receipt records.
package stats

import (
	"sort"
	"time"

	"github.com/kzel/receiptwise/internal/receipt"
)

// Period selects the aggregation window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod maps a raw selector to a Period. Unrecognized or empty values
// fall back to the month period rather than erroring.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return Period(s)
	}
	return PeriodMonth
}

// Extracted dates with a year outside this range are treated as model
// misreads (two-digit years, wrong era) and the creation timestamp is used
// instead.
const (
	minPlausibleYear = 2000
	maxPlausibleYear = 2030
)

// CategoryAmount is a category label with its summed spending.
type CategoryAmount struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TimePoint is one bucket of the spending time series. Date is a zero-padded
// YYYY-MM-DD or YYYY-MM key depending on the period.
type TimePoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// ShopAmount is a merchant name with its summed spending.
type ShopAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// RecentReceipt is the projection of a record shown in the recent-activity
// slice.
type RecentReceipt struct {
	ID           string  `json:"id"`
	MerchantName string  `json:"merchantName,omitempty"`
	TotalAmount  float64 `json:"totalAmount"`
	Date         string  `json:"date,omitempty"`
	Category     string  `json:"category,omitempty"`
}

// Stats is the aggregate result returned to the dashboard.
type Stats struct {
	TotalSpending  float64          `json:"totalSpending"`
	ReceiptCount   int              `json:"receiptCount"`
	CategoryData   []CategoryAmount `json:"categoryData"`
	TimeData       []TimePoint      `json:"timeData"`
	RecentReceipts []RecentReceipt  `json:"recentReceipts"`
	TopShops       []ShopAmount     `json:"topShops"`
}

// EffectiveDate resolves the instant used to filter and bucket a record: the
// extracted date when it parses to a plausible calendar year, otherwise the
// trustworthy creation timestamp.
func EffectiveDate(r *receipt.Record) time.Time {
	if r.Date != "" {
		if d, err := time.Parse("2006-01-02", r.Date); err == nil {
			if y := d.Year(); y >= minPlausibleYear && y <= maxPlausibleYear {
				return d
			}
		}
	}
	return r.CreatedAt
}

// windowStart returns the lower bound of the period window relative to now.
// The second return value is false for the unbounded "all" period.
//
// week is a rolling 7-day window while month and year are calendar-aligned.
// The asymmetry is intentional.
func windowStart(period Period, now time.Time) (time.Time, bool) {
	switch period {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case PeriodYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

type datedRecord struct {
	rec *receipt.Record
	eff time.Time
}

// Compute aggregates records into dashboard statistics for the given period.
// It is pure: now is the reference instant for window filtering, so callers
// and tests control it instead of the system clock. Records whose effective
// date is after now are excluded for every period, including "all". An empty
// input yields zero totals and empty slices, never an error.
func Compute(records []*receipt.Record, period Period, now time.Time) Stats {
	start, bounded := windowStart(period, now)

	filtered := make([]datedRecord, 0, len(records))
	for _, r := range records {
		eff := EffectiveDate(r)
		if eff.After(now) {
			continue
		}
		if bounded && eff.Before(start) {
			continue
		}
		filtered = append(filtered, datedRecord{rec: r, eff: eff})
	}

	st := Stats{
		ReceiptCount:   len(filtered),
		CategoryData:   []CategoryAmount{},
		TimeData:       []TimePoint{},
		RecentReceipts: []RecentReceipt{},
		TopShops:       []ShopAmount{},
	}

	// Monthly buckets for long windows, daily otherwise.
	bucketLayout := "2006-01-02"
	if period == PeriodYear || period == PeriodAll {
		bucketLayout = "2006-01"
	}

	categoryIdx := make(map[string]int)
	shopIdx := make(map[string]int)
	buckets := make(map[string]float64)

	for _, dr := range filtered {
		amount := dr.rec.TotalAmount
		st.TotalSpending += amount

		category := dr.rec.Category
		if category == "" {
			category = "Other"
		}
		if i, ok := categoryIdx[category]; ok {
			st.CategoryData[i].Value += amount
		} else {
			categoryIdx[category] = len(st.CategoryData)
			st.CategoryData = append(st.CategoryData, CategoryAmount{Name: category, Value: amount})
		}

		shop := dr.rec.MerchantName
		if shop == "" {
			shop = "Unknown"
		}
		if i, ok := shopIdx[shop]; ok {
			st.TopShops[i].Amount += amount
		} else {
			shopIdx[shop] = len(st.TopShops)
			st.TopShops = append(st.TopShops, ShopAmount{Name: shop, Amount: amount})
		}

		buckets[dr.eff.Format(bucketLayout)] += amount
	}

	// Zero-padded bucket keys sort chronologically.
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		st.TimeData = append(st.TimeData, TimePoint{Date: k, Amount: buckets[k]})
	}

	// Stable sort keeps first-encountered order for equal amounts.
	sort.SliceStable(st.TopShops, func(i, j int) bool {
		return st.TopShops[i].Amount > st.TopShops[j].Amount
	})
	if len(st.TopShops) > 5 {
		st.TopShops = st.TopShops[:5]
	}

	recent := make([]datedRecord, len(filtered))
	copy(recent, filtered)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].rec.CreatedAt.After(recent[j].rec.CreatedAt)
	})
	if len(recent) > 5 {
		recent = recent[:5]
	}
	for _, dr := range recent {
		st.RecentReceipts = append(st.RecentReceipts, RecentReceipt{
			ID:           dr.rec.ID,
			MerchantName: dr.rec.MerchantName,
			TotalAmount:  dr.rec.TotalAmount,
			Date:         dr.rec.Date,
			Category:     dr.rec.Category,
		})
	}

	return st
}
