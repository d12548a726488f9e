package warehouse

import (
	"testing"
	"time"

	"github.com/fleetlogix/fleetetl/internal/source"
	"github.com/fleetlogix/fleetetl/internal/transform"
)

func TestGenerateDateRows(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := GenerateDateRows(start, end)

	// 11 years, three of them leap (2020, 2024, 2028)
	if len(rows) != 4018 {
		t.Errorf("Expected 4018 rows, got %d", len(rows))
	}
	if rows[0].DateKey != 20200101 {
		t.Errorf("Expected first key 20200101, got %d", rows[0].DateKey)
	}
	if rows[len(rows)-1].DateKey != 20301231 {
		t.Errorf("Expected last key 20301231, got %d", rows[len(rows)-1].DateKey)
	}

	seen := make(map[int]bool, len(rows))
	for _, r := range rows {
		if seen[r.DateKey] {
			t.Fatalf("Duplicate date key %d", r.DateKey)
		}
		seen[r.DateKey] = true
	}
}

func TestGenerateDateRowsFields(t *testing.T) {
	// 2024-03-15 is a Friday
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := GenerateDateRows(day, day)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	r := rows[0]

	if r.DateKey != 20240315 {
		t.Errorf("Expected DateKey 20240315, got %d", r.DateKey)
	}
	if r.DayOfWeek != 5 {
		t.Errorf("Expected ISO day of week 5, got %d", r.DayOfWeek)
	}
	if r.DayName != "Friday" {
		t.Errorf("Expected day name Friday, got %s", r.DayName)
	}
	if r.DayOfYear != 75 {
		t.Errorf("Expected day of year 75, got %d", r.DayOfYear)
	}
	if r.WeekOfYear != 11 {
		t.Errorf("Expected ISO week 11, got %d", r.WeekOfYear)
	}
	if r.Quarter != 1 || r.FiscalQuarter != 1 {
		t.Errorf("Expected quarter 1, got %d/%d", r.Quarter, r.FiscalQuarter)
	}
	if r.IsWeekend {
		t.Error("Expected Friday not to be a weekend")
	}
	if r.IsHoliday {
		t.Error("Expected IsHoliday false")
	}

	// The following Saturday and Sunday are weekend days
	weekend := GenerateDateRows(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	for _, w := range weekend {
		if !w.IsWeekend {
			t.Errorf("Expected %s to be a weekend", w.DayName)
		}
	}
}

func TestGenerateTimeRows(t *testing.T) {
	rows := GenerateTimeRows()
	if len(rows) != 48 {
		t.Fatalf("Expected 48 rows, got %d", len(rows))
	}

	seen := make(map[int]bool, len(rows))
	for _, r := range rows {
		if seen[r.TimeKey] {
			t.Fatalf("Duplicate time key %d", r.TimeKey)
		}
		seen[r.TimeKey] = true
		if r.Minute != 0 && r.Minute != 30 {
			t.Errorf("Unexpected minute %d", r.Minute)
		}
		if r.TimeKey != r.Hour*100+r.Minute {
			t.Errorf("Key %d does not match hour %d minute %d", r.TimeKey, r.Hour, r.Minute)
		}
	}

	if rows[0].TimeKey != 0 {
		t.Errorf("Expected first key 0, got %d", rows[0].TimeKey)
	}
	if rows[47].TimeKey != 2330 {
		t.Errorf("Expected last key 2330, got %d", rows[47].TimeKey)
	}
}

func TestGenerateTimeRowsAttributes(t *testing.T) {
	byKey := make(map[int]TimeRow)
	for _, r := range GenerateTimeRows() {
		byKey[r.TimeKey] = r
	}

	tests := []struct {
		key          int
		timeOfDay    string
		shift        string
		ampm         string
		hour12       string
		businessHour bool
	}{
		{0, "Morning", "Shift 3", "AM", "12:00", false},
		{630, "Morning", "Shift 1", "AM", "6:30", false},
		{900, "Morning", "Shift 1", "AM", "9:00", true},
		{1300, "Afternoon", "Shift 1", "PM", "1:00", true},
		{1430, "Afternoon", "Shift 2", "PM", "2:30", true},
		{1800, "Afternoon", "Shift 2", "PM", "6:00", false},
		{2100, "Night", "Shift 2", "PM", "9:00", false},
		{2330, "Night", "Shift 3", "PM", "11:30", false},
	}

	for _, tt := range tests {
		r, ok := byKey[tt.key]
		if !ok {
			t.Fatalf("Missing time key %d", tt.key)
		}
		if r.TimeOfDay != tt.timeOfDay {
			t.Errorf("Key %d: expected time of day %s, got %s", tt.key, tt.timeOfDay, r.TimeOfDay)
		}
		if r.Shift != tt.shift {
			t.Errorf("Key %d: expected %s, got %s", tt.key, tt.shift, r.Shift)
		}
		if r.AMPM != tt.ampm {
			t.Errorf("Key %d: expected %s, got %s", tt.key, tt.ampm, r.AMPM)
		}
		if r.Hour12 != tt.hour12 {
			t.Errorf("Key %d: expected hour12 %s, got %s", tt.key, tt.hour12, r.Hour12)
		}
		if r.IsBusinessHour != tt.businessHour {
			t.Errorf("Key %d: expected business hour %v, got %v", tt.key, tt.businessHour, r.IsBusinessHour)
		}
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			name: "same day",
			from: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "one day short of a month",
			from: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "exactly one month",
			from: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "eleven months across a year boundary",
			from: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2021, 1, 30, 0, 0, 0, 0, time.UTC),
			want: 11,
		},
		{
			name: "multi-year tenure",
			from: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			want: 60,
		},
		{
			name: "to before from",
			from: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("Expected %d months, got %d", tt.want, got)
			}
		})
	}
}

func TestClassifyRoute(t *testing.T) {
	tests := []struct {
		distance   float64
		difficulty string
		routeType  string
	}{
		{30, "Easy", "Urban"},
		{49.9, "Easy", "Urban"},
		{50, "Easy", "Intercity"},
		{99.9, "Easy", "Intercity"},
		{100, "Medium", "Intercity"},
		{199.9, "Medium", "Intercity"},
		{200, "Medium", "Rural"},
		{299.9, "Medium", "Rural"},
		{300, "Hard", "Rural"},
		{800, "Hard", "Rural"},
	}

	for _, tt := range tests {
		difficulty, routeType := ClassifyRoute(tt.distance)
		if difficulty != tt.difficulty {
			t.Errorf("Distance %v: expected difficulty %s, got %s",
				tt.distance, tt.difficulty, difficulty)
		}
		if routeType != tt.routeType {
			t.Errorf("Distance %v: expected type %s, got %s",
				tt.distance, tt.routeType, routeType)
		}
	}
}

func customerRecord(name, city string) transform.Record {
	return transform.Record{
		DeliveryRecord: source.DeliveryRecord{
			CustomerName:    name,
			DestinationCity: city,
		},
	}
}

func TestNewCustomers(t *testing.T) {
	records := []transform.Record{
		customerRecord("Alice Trading", "Guadalajara"),
		customerRecord("Beta Logistics", "Monterrey"),
		customerRecord("Alice Trading", "Guadalajara"), // repeat within batch
		customerRecord("Carmen Foods", "Tijuana"),
	}
	existing := map[string]bool{"Beta Logistics": true}

	got := NewCustomers(records, existing)

	want := [][2]string{
		{"Alice Trading", "Guadalajara"},
		{"Carmen Foods", "Tijuana"},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d new customers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNewCustomersAllKnown(t *testing.T) {
	records := []transform.Record{customerRecord("Alice Trading", "Guadalajara")}
	existing := map[string]bool{"Alice Trading": true}

	if got := NewCustomers(records, existing); len(got) != 0 {
		t.Errorf("Expected no new customers, got %v", got)
	}
}
