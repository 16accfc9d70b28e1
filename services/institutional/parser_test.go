package institutional

import "testing"

func TestParseRows_OffsetDetection(t *testing.T) {
	rows := [][]string{
		// Code in column 0, no rank column.
		{"2330", "台積電", "1,000,000", "400,000", "600,000"},
		// Rank column first, code shifts to column 1.
		{"1", "2454", "聯發科", "500,000", "100,000", "400,000"},
		// No 4-digit code in either leading column: discard.
		{"總計", "合計", "9,999", "9,999", "0"},
		// Warrant-style 6-char code: discard.
		{"030001", "某權證", "10", "5", "5"},
	}

	records := ParseRows(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	if records[0].Code != "2330" || records[0].NetShares != 600000 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Code != "2454" || records[1].BuyShares != 500000 {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestParseRows_OffsetOneWithEmptyLeading(t *testing.T) {
	rows := [][]string{
		{"", "2330", "台積電", "1,000,000", "500,000", "500,000"},
	}
	records := ParseRows(rows)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Code != "2330" || records[0].NetShares != 500000 {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestParseShares_Placeholders(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1,234,567", 1234567, true},
		{"--", 0, true},
		{"-", 0, true},
		{"", 0, true},
		{"-5,000", -5000, true},
		{" 42 ", 42, true},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseShares(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseShares(%q) = %d,%v; want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseRows_ShortRowDiscarded(t *testing.T) {
	rows := [][]string{
		{"2330", "台積電", "1,000"},
	}
	if records := ParseRows(rows); len(records) != 0 {
		t.Errorf("expected short row discarded, got %+v", records)
	}
}
