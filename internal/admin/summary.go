package admin

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rotteck/merchshop/internal/order"
)

const unknownKey = "unknown"

// Summary holds the per-status and per-variant counts shown on the admin
// dashboard. It is recomputed from the full order set on every request.
type Summary struct {
	TotalOrders    int            `json:"totalOrders"`
	StatusCounts   map[string]int `json:"statusCounts"`
	ItemsByColor   map[string]int `json:"itemsByColor"`
	ItemsBySize    map[string]int `json:"itemsBySize"`
	ItemsByVariant map[string]int `json:"itemsByVariant"`
}

// Aggregate folds the order set into a Summary. The fold is pure: iteration
// order does not affect the result and rerunning on the same input yields
// the same output.
func Aggregate(orders []order.Order) Summary {
	summary := Summary{
		StatusCounts:   make(map[string]int),
		ItemsByColor:   make(map[string]int),
		ItemsBySize:    make(map[string]int),
		ItemsByVariant: make(map[string]int),
	}

	for _, o := range orders {
		summary.TotalOrders++

		statusKey := normalizeKey(string(o.Status))
		if statusKey == "" {
			statusKey = unknownKey
		}
		summary.StatusCounts[statusKey]++

		for _, item := range o.Items {
			if item.Quantity <= 0 {
				continue
			}

			colorKey := normalizeKey(item.Color)
			if colorKey == "" {
				colorKey = unknownKey
			}
			sizeKey := normalizeKey(item.Size)
			if sizeKey == "" {
				sizeKey = unknownKey
			}

			summary.ItemsByColor[colorKey] += item.Quantity
			summary.ItemsBySize[sizeKey] += item.Quantity
			summary.ItemsByVariant[colorKey+"__"+sizeKey] += item.Quantity
		}
	}

	return summary
}

// DayCount is one bucket of the per-day order histogram.
type DayCount struct {
	Date   string `json:"date"`
	Total  int    `json:"total"`
	Paid   int    `json:"paid"`
	Unpaid int    `json:"unpaid"`
}

// OrdersPerDay buckets orders by UTC creation date, oldest first.
func OrdersPerDay(orders []order.Order) []DayCount {
	byDay := make(map[string]*DayCount)
	for _, o := range orders {
		if o.CreatedAt.IsZero() {
			continue
		}
		key := o.CreatedAt.UTC().Format("2006-01-02")
		entry, ok := byDay[key]
		if !ok {
			entry = &DayCount{Date: key}
			byDay[key] = entry
		}
		entry.Total++
		if o.Status == order.StatusPaid {
			entry.Paid++
		} else {
			entry.Unpaid++
		}
	}

	days := make([]DayCount, 0, len(byDay))
	for _, entry := range byDay {
		days = append(days, *entry)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// Financials holds revenue and profit totals split by settlement state.
// Derived on demand from a fixed unit sale price and an admin-supplied unit
// production cost; never persisted.
type Financials struct {
	TotalOrders   int             `json:"totalOrders"`
	PaidOrders    int             `json:"paidOrders"`
	UnpaidOrders  int             `json:"unpaidOrders"`
	PaidItems     int             `json:"paidItems"`
	UnpaidItems   int             `json:"unpaidItems"`
	TotalItems    int             `json:"totalItems"`
	PaidRevenue   decimal.Decimal `json:"paidRevenue"`
	UnpaidRevenue decimal.Decimal `json:"unpaidRevenue"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PaidProfit    decimal.Decimal `json:"paidProfit"`
	UnpaidProfit  decimal.Decimal `json:"unpaidProfit"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	MarginPerItem decimal.Decimal `json:"marginPerItem"`
}

// ComputeFinancials folds the order set into revenue and profit totals.
// A negative production cost is treated as zero.
func ComputeFinancials(orders []order.Order, unitPrice, productionCost decimal.Decimal) Financials {
	if productionCost.IsNegative() {
		productionCost = decimal.Zero
	}

	margin := unitPrice.Sub(productionCost)
	totals := Financials{
		TotalOrders:   len(orders),
		PaidRevenue:   decimal.Zero,
		UnpaidRevenue: decimal.Zero,
		PaidProfit:    decimal.Zero,
		UnpaidProfit:  decimal.Zero,
		MarginPerItem: margin,
	}

	for _, o := range orders {
		quantity := 0
		for _, item := range o.Items {
			if item.Quantity > 0 {
				quantity += item.Quantity
			}
		}

		qty := decimal.NewFromInt(int64(quantity))
		revenue := qty.Mul(unitPrice)
		profit := qty.Mul(margin)

		if o.Status == order.StatusPaid {
			totals.PaidOrders++
			totals.PaidItems += quantity
			totals.PaidRevenue = totals.PaidRevenue.Add(revenue)
			totals.PaidProfit = totals.PaidProfit.Add(profit)
		} else {
			totals.UnpaidOrders++
			totals.UnpaidItems += quantity
			totals.UnpaidRevenue = totals.UnpaidRevenue.Add(revenue)
			totals.UnpaidProfit = totals.UnpaidProfit.Add(profit)
		}
	}

	totals.TotalItems = totals.PaidItems + totals.UnpaidItems
	totals.TotalRevenue = totals.PaidRevenue.Add(totals.UnpaidRevenue)
	totals.TotalProfit = totals.PaidProfit.Add(totals.UnpaidProfit)

	return totals
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
