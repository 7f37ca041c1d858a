package schema

import (
	"testing"
	"time"
)

func TestProductTierOf_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		price float64
		want  ProductTier
	}{
		{0, Economy},
		{49.99, Economy},
		{50.00, MidRange},
		{199.99, MidRange},
		{200.00, Premium},
		{500, Premium},
	}
	for _, tc := range tests {
		if got := ProductTierOf(tc.price); got != tc.want {
			t.Errorf("ProductTierOf(%v) = %v, want %v", tc.price, got, tc.want)
		}
	}
}

func TestOrderSizeOf_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount float64
		want   OrderSize
	}{
		{0, Small},
		{99.99, Small},
		{100, Medium},
		{499.99, Medium},
		{500, Large},
		{999.99, Large},
		{1000, ExtraLarge},
		{2000, ExtraLarge},
	}
	for _, tc := range tests {
		if got := OrderSizeOf(tc.amount); got != tc.want {
			t.Errorf("OrderSizeOf(%v) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}

func TestAgeSegmentOf_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		age  int
		want AgeSegment
	}{
		{16, YoungAdult},
		{18, YoungAdult},
		{24, YoungAdult},
		{25, Adult},
		{34, Adult},
		{35, MiddleAge},
		{49, MiddleAge},
		{50, Senior},
		{64, Senior},
	}
	for _, tc := range tests {
		if got := AgeSegmentOf(tc.age); got != tc.want {
			t.Errorf("AgeSegmentOf(%d) = %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestEnumNames(t *testing.T) {
	t.Parallel()

	if got := MidRange.String(); got != "Mid-Range" {
		t.Fatalf("MidRange = %q", got)
	}
	if got := ExtraLarge.String(); got != "Extra Large" {
		t.Fatalf("ExtraLarge = %q", got)
	}
	if got := MiddleAge.String(); got != "Middle Age" {
		t.Fatalf("MiddleAge = %q", got)
	}
	b, err := Premium.MarshalText()
	if err != nil || string(b) != "Premium" {
		t.Fatalf("Premium.MarshalText = %q, %v", b, err)
	}
	if got := ProductTier(42).String(); got != "ProductTier(42)" {
		t.Fatalf("out of range tier = %q", got)
	}
}

func TestDayOfWeekOf_MondayFirst(t *testing.T) {
	t.Parallel()

	// 2023-11-20 is a Monday.
	mon := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		d := DayOfWeekOf(mon.AddDate(0, 0, i).Weekday())
		if int(d) != i {
			t.Fatalf("day %d: got index %d", i, d)
		}
	}
	if Sunday.Name() != "Sunday" || Monday.Name() != "Monday" {
		t.Fatalf("names: %s %s", Monday.Name(), Sunday.Name())
	}
}

func TestQuarterOf(t *testing.T) {
	t.Parallel()

	want := map[time.Month]int{
		time.January: 1, time.March: 1, time.April: 2, time.June: 2,
		time.July: 3, time.September: 3, time.October: 4, time.December: 4,
	}
	for m, q := range want {
		if got := QuarterOf(m); got != q {
			t.Errorf("QuarterOf(%v) = %d, want %d", m, got, q)
		}
	}
}
