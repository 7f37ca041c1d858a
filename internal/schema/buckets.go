package schema

import (
	"fmt"
	"time"
)

// Bucket breakpoints. Every bucket is closed at its lower bound: a value equal
// to a breakpoint belongs to the higher bucket.
const (
	AdultFromAge      = 25
	MiddleAgeFromAge  = 35
	SeniorFromAge     = 50
	MidRangeFromPrice = 50.0
	PremiumFromPrice  = 200.0
	MediumFromAmount  = 100.0
	LargeFromAmount   = 500.0
	XLargeFromAmount  = 1000.0
)

// AgeSegment is a closed enumeration of customer age bands.
type AgeSegment uint8

const (
	AgeSegmentUnknown AgeSegment = iota
	YoungAdult
	Adult
	MiddleAge
	Senior
)

var ageSegmentNames = [...]string{"Unknown", "Young Adult", "Adult", "Middle Age", "Senior"}

// AgeSegmentOf bins an age. Ages under 25 (including under-18s) are Young Adult.
func AgeSegmentOf(age int) AgeSegment {
	switch {
	case age >= SeniorFromAge:
		return Senior
	case age >= MiddleAgeFromAge:
		return MiddleAge
	case age >= AdultFromAge:
		return Adult
	default:
		return YoungAdult
	}
}

func (s AgeSegment) String() string {
	if int(s) < len(ageSegmentNames) {
		return ageSegmentNames[s]
	}
	return fmt.Sprintf("AgeSegment(%d)", uint8(s))
}

// MarshalText encodes the segment by its display name.
func (s AgeSegment) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ProductTier is a closed enumeration of unit-price tiers.
type ProductTier uint8

const (
	ProductTierUnknown ProductTier = iota
	Economy
	MidRange
	Premium
)

var productTierNames = [...]string{"Unknown", "Economy", "Mid-Range", "Premium"}

// ProductTierOf bins a unit price: [0,50) Economy, [50,200) Mid-Range, [200,∞) Premium.
func ProductTierOf(price float64) ProductTier {
	switch {
	case price >= PremiumFromPrice:
		return Premium
	case price >= MidRangeFromPrice:
		return MidRange
	default:
		return Economy
	}
}

func (t ProductTier) String() string {
	if int(t) < len(productTierNames) {
		return productTierNames[t]
	}
	return fmt.Sprintf("ProductTier(%d)", uint8(t))
}

// MarshalText encodes the tier by its display name.
func (t ProductTier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// OrderSize is a closed enumeration of order-amount bands.
type OrderSize uint8

const (
	OrderSizeUnknown OrderSize = iota
	Small
	Medium
	Large
	ExtraLarge
)

var orderSizeNames = [...]string{"Unknown", "Small", "Medium", "Large", "Extra Large"}

// OrderSizeOf bins a total amount: [0,100) Small, [100,500) Medium,
// [500,1000) Large, [1000,∞) Extra Large.
func OrderSizeOf(amount float64) OrderSize {
	switch {
	case amount >= XLargeFromAmount:
		return ExtraLarge
	case amount >= LargeFromAmount:
		return Large
	case amount >= MediumFromAmount:
		return Medium
	default:
		return Small
	}
}

func (o OrderSize) String() string {
	if int(o) < len(orderSizeNames) {
		return orderSizeNames[o]
	}
	return fmt.Sprintf("OrderSize(%d)", uint8(o))
}

// MarshalText encodes the size by its display name.
func (o OrderSize) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// DayOfWeek counts from Monday = 0 to Sunday = 6.
type DayOfWeek uint8

const (
	Monday DayOfWeek = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DayOfWeekOf converts a time.Weekday (Sunday = 0) to the Monday-first index.
func DayOfWeekOf(wd time.Weekday) DayOfWeek {
	return DayOfWeek((int(wd) + 6) % 7)
}

// Name returns the English day name.
func (d DayOfWeek) Name() string {
	return time.Weekday((int(d) + 1) % 7).String()
}

func (d DayOfWeek) String() string { return d.Name() }

// QuarterOf returns ceil(month/3) for a month in 1..12.
func QuarterOf(month time.Month) int {
	return (int(month) + 2) / 3
}
