package schema

import (
	"sort"

	"salesmart/internal/ddl"
)

// Relation names of the data mart.
const (
	TableCustomers = "customers"
	TableOrders    = "orders"
	TableProducts  = "products"
	TableSummary   = "summary_metrics"
)

// Summary is a flat mapping of metric name to value.
type Summary map[string]float64

// Keys returns the metric names in sorted order.
func (s Summary) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CustomersTable is the customer dimension; customer_id is the primary key.
var CustomersTable = ddl.TableDef{
	FQN: TableCustomers,
	Columns: []ddl.ColumnDef{
		{Name: "customer_id", Kind: ddl.KindText, PrimaryKey: true},
		{Name: "gender", Kind: ddl.KindText},
		{Name: "age", Kind: ddl.KindInt},
		{Name: "age_segment", Kind: ddl.KindText},
		{Name: "total_lifetime_value", Kind: ddl.KindFloat},
		{Name: "total_transactions", Kind: ddl.KindInt},
		{Name: "high_value_customer", Kind: ddl.KindBool},
	},
}

// OrdersTable is the order fact; transaction_id is the primary key and
// customer_id references customers.
var OrdersTable = ddl.TableDef{
	FQN: TableOrders,
	Columns: []ddl.ColumnDef{
		{Name: "transaction_id", Kind: ddl.KindBigInt, PrimaryKey: true},
		{Name: "transaction_date", Kind: ddl.KindDate},
		{Name: "customer_id", Kind: ddl.KindText},
		{Name: "product_category", Kind: ddl.KindText},
		{Name: "product_tier", Kind: ddl.KindText},
		{Name: "quantity", Kind: ddl.KindInt},
		{Name: "price_per_unit", Kind: ddl.KindFloat},
		{Name: "total_amount", Kind: ddl.KindFloat},
		{Name: "margin", Kind: ddl.KindFloat},
		{Name: "margin_percent", Kind: ddl.KindFloat},
		{Name: "order_size", Kind: ddl.KindText},
		{Name: "age_segment", Kind: ddl.KindText},
		{Name: "year", Kind: ddl.KindInt},
		{Name: "month", Kind: ddl.KindInt},
		{Name: "quarter", Kind: ddl.KindInt},
		{Name: "day_of_week", Kind: ddl.KindInt},
		{Name: "day_name", Kind: ddl.KindText},
		{Name: "high_value_customer", Kind: ddl.KindBool},
	},
	ForeignKeys: []ddl.ForeignKey{
		{Columns: []string{"customer_id"}, RefTable: TableCustomers, RefColumns: []string{"customer_id"}},
	},
}

// ProductsTable is the product dimension keyed on (product_category, product_tier).
var ProductsTable = ddl.TableDef{
	FQN: TableProducts,
	Columns: []ddl.ColumnDef{
		{Name: "product_category", Kind: ddl.KindText, PrimaryKey: true},
		{Name: "product_tier", Kind: ddl.KindText, PrimaryKey: true},
		{Name: "total_transactions", Kind: ddl.KindInt},
		{Name: "total_quantity_sold", Kind: ddl.KindInt},
		{Name: "total_revenue", Kind: ddl.KindFloat},
		{Name: "avg_price_per_unit", Kind: ddl.KindFloat},
	},
}

// SummaryTable stores the summary metrics, one row per metric.
var SummaryTable = ddl.TableDef{
	FQN: TableSummary,
	Columns: []ddl.ColumnDef{
		{Name: "metric_name", Kind: ddl.KindText, PrimaryKey: true},
		{Name: "metric_value", Kind: ddl.KindFloat},
	},
}

// Tables returns the mart tables in load order: referenced tables first.
func Tables() []ddl.TableDef {
	return []ddl.TableDef{CustomersTable, OrdersTable, ProductsTable, SummaryTable}
}

// Values returns c aligned to CustomersTable columns.
func (c Customer) Values() []any {
	return []any{
		c.CustomerID,
		c.Gender,
		c.Age,
		c.AgeSegment.String(),
		c.TotalLifetimeValue,
		c.TotalTransactions,
		c.HighValueCustomer,
	}
}

// Values returns o aligned to OrdersTable columns.
func (o Order) Values() []any {
	return []any{
		o.TransactionID,
		o.TransactionDate,
		o.CustomerID,
		o.ProductCategory,
		o.ProductTier.String(),
		o.Quantity,
		o.PricePerUnit,
		o.TotalAmount,
		o.Margin,
		o.MarginPercent,
		o.OrderSize.String(),
		o.AgeSegment.String(),
		o.Year,
		o.Month,
		o.Quarter,
		int(o.DayOfWeek),
		o.DayOfWeek.Name(),
		o.HighValueCustomer,
	}
}

// Values returns p aligned to ProductsTable columns.
func (p Product) Values() []any {
	return []any{
		p.ProductCategory,
		p.ProductTier.String(),
		p.TotalTransactions,
		p.TotalQuantitySold,
		p.TotalRevenue,
		p.AvgPricePerUnit,
	}
}

// Rows returns the summary as SummaryTable rows, sorted by metric name.
func (s Summary) Rows() [][]any {
	keys := s.Keys()
	rows := make([][]any, len(keys))
	for i, k := range keys {
		rows[i] = []any{k, s[k]}
	}
	return rows
}

// Summary metric names.
const (
	MetricTotalRevenue         = "total_revenue"
	MetricTotalTransactions    = "total_transactions"
	MetricTotalQuantity        = "total_quantity"
	MetricUniqueCustomers      = "unique_customers"
	MetricAverageOrderValue    = "average_order_value"
	MetricAverageMargin        = "average_margin"
	MetricAverageMarginPercent = "average_margin_percent"
	MetricAverageLifetimeValue = "average_customer_lifetime_value"
	MetricHighValueThreshold   = "high_value_threshold"
	MetricHighValueCustomers   = "high_value_customers"
	MetricProductGroups        = "product_groups"
	MetricCategories           = "categories"
)
