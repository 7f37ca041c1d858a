// Package schema defines the record types that flow between pipeline stages,
// the categorical buckets derived from them, the relational layout of the
// data mart, and the error kinds stages report.
//
// Values are plain structs passed by value between stages; no stage mutates a
// batch it received.
package schema

import "time"

// DateLayout is the canonical layout used when writing transaction dates.
const DateLayout = "2006-01-02"

// Canonical (snake_case) raw field names.
const (
	FieldTransactionID   = "transaction_id"
	FieldTransactionDate = "transaction_date"
	FieldCustomerID      = "customer_id"
	FieldGender          = "gender"
	FieldAge             = "age"
	FieldProductCategory = "product_category"
	FieldQuantity        = "quantity"
	FieldPricePerUnit    = "price_per_unit"
	FieldTotalAmount     = "total_amount"
)

// RawFields lists the nine input fields in canonical order.
var RawFields = []string{
	FieldTransactionID,
	FieldTransactionDate,
	FieldCustomerID,
	FieldGender,
	FieldAge,
	FieldProductCategory,
	FieldQuantity,
	FieldPricePerUnit,
	FieldTotalAmount,
}

// Raw is one input row as handed over by the extraction boundary. Values are
// keyed by canonical field name; a missing key or an empty value is a null.
type Raw struct {
	Line   int // 1-based source line, header is line 1
	Values map[string]string

	// Err is set when the reader could not parse the line; Values is empty.
	Err error
}

// Get returns the value for field and whether it is present and non-empty.
func (r Raw) Get(field string) (string, bool) {
	v, ok := r.Values[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Transaction is a typed, cleaned input record. The date is kept in its
// source text form; the derivation engine parses it.
type Transaction struct {
	Line            int     `json:"line" validate:"-"`
	TransactionID   int64   `json:"transaction_id" validate:"gt=0"`
	TransactionDate string  `json:"transaction_date" validate:"required"`
	CustomerID      string  `json:"customer_id" validate:"required"`
	Gender          string  `json:"gender" validate:"oneof=Male Female"`
	Age             int     `json:"age" validate:"gte=1,lte=120"`
	ProductCategory string  `json:"product_category" validate:"required"`
	Quantity        int     `json:"quantity" validate:"gt=0"`
	PricePerUnit    float64 `json:"price_per_unit" validate:"gte=0"`
	TotalAmount     float64 `json:"total_amount" validate:"gte=0"`
}

// Enriched is a Transaction plus its derived analytic fields. The high-value
// flag is not part of it: it depends on every customer's lifetime value and
// is resolved by the splitter onto customer and order rows.
type Enriched struct {
	Transaction

	Date          time.Time   `json:"date" validate:"required"`
	Margin        float64     `json:"margin"`
	MarginPercent float64     `json:"margin_percent"`
	AgeSegment    AgeSegment  `json:"age_segment" validate:"required"`
	ProductTier   ProductTier `json:"product_tier" validate:"required"`
	OrderSize     OrderSize   `json:"order_size" validate:"required"`
	Year          int         `json:"year" validate:"gte=1"`
	Month         int         `json:"month" validate:"gte=1,lte=12"`
	Quarter       int         `json:"quarter" validate:"gte=1,lte=4"`
	DayOfWeek     DayOfWeek   `json:"day_of_week" validate:"lte=6"`
}

// Customer is one row of the customer dimension.
type Customer struct {
	CustomerID         string     `db:"customer_id"`
	Gender             string     `db:"gender"`
	Age                int        `db:"age"`
	AgeSegment         AgeSegment `db:"age_segment"`
	TotalLifetimeValue float64    `db:"total_lifetime_value"`
	TotalTransactions  int        `db:"total_transactions"`
	HighValueCustomer  bool       `db:"high_value_customer"`
}

// Order is one row of the order fact table.
type Order struct {
	TransactionID     int64       `db:"transaction_id"`
	TransactionDate   time.Time   `db:"transaction_date"`
	CustomerID        string      `db:"customer_id"`
	ProductCategory   string      `db:"product_category"`
	ProductTier       ProductTier `db:"product_tier"`
	Quantity          int         `db:"quantity"`
	PricePerUnit      float64     `db:"price_per_unit"`
	TotalAmount       float64     `db:"total_amount"`
	Margin            float64     `db:"margin"`
	MarginPercent     float64     `db:"margin_percent"`
	OrderSize         OrderSize   `db:"order_size"`
	AgeSegment        AgeSegment  `db:"age_segment"`
	Year              int         `db:"year"`
	Month             int         `db:"month"`
	Quarter           int         `db:"quarter"`
	DayOfWeek         DayOfWeek   `db:"day_of_week"`
	HighValueCustomer bool        `db:"high_value_customer"`
}

// ProductKey is the composite key of the product dimension.
type ProductKey struct {
	Category string
	Tier     ProductTier
}

// Product is one row of the product dimension.
type Product struct {
	ProductCategory   string      `db:"product_category"`
	ProductTier       ProductTier `db:"product_tier"`
	TotalTransactions int         `db:"total_transactions"`
	TotalQuantitySold int         `db:"total_quantity_sold"`
	TotalRevenue      float64     `db:"total_revenue"`
	AvgPricePerUnit   float64     `db:"avg_price_per_unit"`
}

// Key returns the composite key of p.
func (p Product) Key() ProductKey {
	return ProductKey{Category: p.ProductCategory, Tier: p.ProductTier}
}

// Rejection records a single row dropped by a stage, with the rule that
// dropped it.
type Rejection struct {
	Line          int
	TransactionID int64 // 0 when the id itself could not be read
	Stage         string
	Rule          string
	Err           error
}

// Reason returns the human-readable rejection reason.
func (r Rejection) Reason() string {
	if r.Err == nil {
		return r.Rule
	}
	return r.Err.Error()
}
