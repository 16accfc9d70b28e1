package dividend

import "testing"

func TestParseROCDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"114/08/25", "2025-08-25", true},
		{"115年01月05日", "2026-01-05", true},
		{" 113/12/31 ", "2024-12-31", true},
		{"2025/08/25", "3936-08-25", true}, // western year passes through arithmetic unchanged
		{"bad", "", false},
		{"114/13/01", "", false},
	}
	for _, tt := range tests {
		got, err := ParseROCDate(tt.in)
		if tt.ok && err != nil {
			t.Errorf("ParseROCDate(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ParseROCDate(%q) expected error, got %s", tt.in, got.Format("2006-01-02"))
			}
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseROCDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestParseSchedule(t *testing.T) {
	rows := [][]string{
		{"114/08/25", "2330", "台積電", "1,050.00", "1,045.00", "5.00", "息", "", ""},
		{"114/08/26", "2887", "台新金", "18.00", "17.50", "0.50", "權", "", ""},
		{"bad date", "9999", "壞列", "1", "1", "1", "息"},
		{"114/08/27", "1234"},
	}
	events := parseSchedule(rows)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Code != "2330" || events[0].CashDividend != "5" || events[0].ExDate != "2025-08-25" {
		t.Errorf("unexpected cash event: %+v", events[0])
	}
	if events[1].StockDividend != "0.5" || events[1].CashDividend != "" {
		t.Errorf("unexpected stock event: %+v", events[1])
	}
}
