// Package split turns the enriched transaction stream into the data mart
// relations: the customer dimension, the order fact, the product dimension
// and a summary metrics mapping.
//
// The high-value customer flag depends on the 75th percentile of every
// customer's lifetime value, so customers are built in two explicit passes:
// aggregateCustomers, then flagHighValue once the threshold is known.
package split

import (
	"fmt"
	"sort"

	"salesmart/internal/schema"
)

// Stage is the stage name carried on rejections from this package.
const Stage = "split"

// RuleReferentialViolation tags order rows whose customer has no dimension row.
const RuleReferentialViolation = "referential_violation"

// HighValuePercentile is the lifetime-value percentile at or above which a
// customer is high value.
const HighValuePercentile = 75.0

// Result holds the split relations. Customers are sorted by customer_id,
// orders follow the enriched batch order, products are sorted by category
// then tier.
type Result struct {
	Customers          []schema.Customer
	Orders             []schema.Order
	Products           []schema.Product
	Summary            schema.Summary
	HighValueThreshold float64

	// Rejected lists order rows that could not be emitted.
	Rejected []schema.Rejection
}

// Split builds the mart relations from enriched. It returns a
// *schema.DuplicateKeyError when a transaction_id repeats and a
// *schema.InconsistentDimensionError when a customer's age_segment differs
// between transactions; both abort the split.
func Split(enriched []schema.Enriched) (Result, error) {
	if err := checkUniqueTransactions(enriched); err != nil {
		return Result{}, err
	}

	customers, err := aggregateCustomers(enriched)
	if err != nil {
		return Result{}, err
	}
	threshold := HighValueThreshold(customers)
	customers = flagHighValue(customers, threshold)

	orders, rejected := buildOrders(enriched, customers)
	products := aggregateProducts(enriched)

	return Result{
		Customers:          customers,
		Orders:             orders,
		Products:           products,
		Summary:            summarize(enriched, customers, products, threshold),
		HighValueThreshold: threshold,
		Rejected:           rejected,
	}, nil
}

func checkUniqueTransactions(enriched []schema.Enriched) error {
	lines := make(map[int64]int, len(enriched))
	for _, e := range enriched {
		if first, dup := lines[e.TransactionID]; dup {
			return &schema.DuplicateKeyError{
				Relation: schema.TableOrders,
				Key:      fmt.Sprintf("transaction_id=%d", e.TransactionID),
				Lines:    []int{first, e.Line},
			}
		}
		lines[e.TransactionID] = e.Line
	}
	return nil
}

// aggregateCustomers is the first pass: one row per customer with lifetime
// totals. Gender and age come from the customer's first transaction. The
// high-value flag is left unset.
func aggregateCustomers(enriched []schema.Enriched) ([]schema.Customer, error) {
	idx := make(map[string]int, len(enriched))
	var out []schema.Customer
	for _, e := range enriched {
		i, ok := idx[e.CustomerID]
		if !ok {
			idx[e.CustomerID] = len(out)
			out = append(out, schema.Customer{
				CustomerID: e.CustomerID,
				Gender:     e.Gender,
				Age:        e.Age,
				AgeSegment: e.AgeSegment,
			})
			i = len(out) - 1
		}
		c := &out[i]
		if c.AgeSegment != e.AgeSegment {
			return nil, &schema.InconsistentDimensionError{
				Dimension: "customer",
				Key:       e.CustomerID,
				Attribute: "age_segment",
				Values:    []string{c.AgeSegment.String(), e.AgeSegment.String()},
			}
		}
		c.TotalLifetimeValue += e.TotalAmount
		c.TotalTransactions++
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CustomerID < out[b].CustomerID })
	return out, nil
}

// HighValueThreshold is the HighValuePercentile of the customers' lifetime
// values. It must be computed over the complete customer population.
func HighValueThreshold(customers []schema.Customer) float64 {
	ltv := make([]float64, len(customers))
	for i, c := range customers {
		ltv[i] = c.TotalLifetimeValue
	}
	return Percentile(ltv, HighValuePercentile)
}

// flagHighValue is the second pass. It returns a new slice.
func flagHighValue(customers []schema.Customer, threshold float64) []schema.Customer {
	out := make([]schema.Customer, len(customers))
	for i, c := range customers {
		c.HighValueCustomer = c.TotalLifetimeValue >= threshold
		out[i] = c
	}
	return out
}

func buildOrders(enriched []schema.Enriched, customers []schema.Customer) ([]schema.Order, []schema.Rejection) {
	highValue := make(map[string]bool, len(customers))
	for _, c := range customers {
		highValue[c.CustomerID] = c.HighValueCustomer
	}

	orders := make([]schema.Order, 0, len(enriched))
	var rejected []schema.Rejection
	for _, e := range enriched {
		hv, ok := highValue[e.CustomerID]
		if !ok {
			rejected = append(rejected, schema.Rejection{
				Line:          e.Line,
				TransactionID: e.TransactionID,
				Stage:         Stage,
				Rule:          RuleReferentialViolation,
				Err:           &schema.ReferentialViolationError{TransactionID: e.TransactionID, CustomerID: e.CustomerID},
			})
			continue
		}
		orders = append(orders, schema.Order{
			TransactionID:     e.TransactionID,
			TransactionDate:   e.Date,
			CustomerID:        e.CustomerID,
			ProductCategory:   e.ProductCategory,
			ProductTier:       e.ProductTier,
			Quantity:          e.Quantity,
			PricePerUnit:      e.PricePerUnit,
			TotalAmount:       e.TotalAmount,
			Margin:            e.Margin,
			MarginPercent:     e.MarginPercent,
			OrderSize:         e.OrderSize,
			AgeSegment:        e.AgeSegment,
			Year:              e.Year,
			Month:             e.Month,
			Quarter:           e.Quarter,
			DayOfWeek:         e.DayOfWeek,
			HighValueCustomer: hv,
		})
	}
	return orders, rejected
}

// aggregateProducts groups by (category, tier). The average unit price is
// weighted by quantity: sum(quantity × price) / sum(quantity).
func aggregateProducts(enriched []schema.Enriched) []schema.Product {
	type acc struct {
		p        schema.Product
		weighted float64
	}
	idx := make(map[schema.ProductKey]int)
	var groups []acc
	for _, e := range enriched {
		k := schema.ProductKey{Category: e.ProductCategory, Tier: e.ProductTier}
		i, ok := idx[k]
		if !ok {
			idx[k] = len(groups)
			groups = append(groups, acc{p: schema.Product{ProductCategory: k.Category, ProductTier: k.Tier}})
			i = len(groups) - 1
		}
		g := &groups[i]
		g.p.TotalTransactions++
		g.p.TotalQuantitySold += e.Quantity
		g.p.TotalRevenue += e.TotalAmount
		g.weighted += float64(e.Quantity) * e.PricePerUnit
	}

	out := make([]schema.Product, len(groups))
	for i, g := range groups {
		if g.p.TotalQuantitySold > 0 {
			g.p.AvgPricePerUnit = g.weighted / float64(g.p.TotalQuantitySold)
		}
		out[i] = g.p
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].ProductCategory != out[b].ProductCategory {
			return out[a].ProductCategory < out[b].ProductCategory
		}
		return out[a].ProductTier < out[b].ProductTier
	})
	return out
}

func summarize(enriched []schema.Enriched, customers []schema.Customer, products []schema.Product, threshold float64) schema.Summary {
	var revenue, margin, marginPct float64
	var quantity int
	categories := make(map[string]struct{})
	for _, e := range enriched {
		revenue += e.TotalAmount
		margin += e.Margin
		marginPct += e.MarginPercent
		quantity += e.Quantity
		categories[e.ProductCategory] = struct{}{}
	}
	highValue := 0
	for _, c := range customers {
		if c.HighValueCustomer {
			highValue++
		}
	}

	n := float64(len(enriched))
	return schema.Summary{
		schema.MetricTotalRevenue:         revenue,
		schema.MetricTotalTransactions:    n,
		schema.MetricTotalQuantity:        float64(quantity),
		schema.MetricUniqueCustomers:      float64(len(customers)),
		schema.MetricAverageOrderValue:    ratio(revenue, n),
		schema.MetricAverageMargin:        ratio(margin, n),
		schema.MetricAverageMarginPercent: ratio(marginPct, n),
		schema.MetricAverageLifetimeValue: ratio(revenue, float64(len(customers))),
		schema.MetricHighValueThreshold:   threshold,
		schema.MetricHighValueCustomers:   float64(highValue),
		schema.MetricProductGroups:        float64(len(products)),
		schema.MetricCategories:           float64(len(categories)),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
