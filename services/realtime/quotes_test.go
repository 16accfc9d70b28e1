package realtime

import "testing"

func TestParseQuote_Normal(t *testing.T) {
	q, ok := parseQuote("2330", "台積電", "1050.0", "1000.0", "1010.0", "1060.0", "1005.0", "25000", "1049.0_1048.0_1047.0_1046.0_1045.0")
	if !ok {
		t.Fatal("expected parseable quote")
	}
	if q.Price != 1050 || q.PrevClose != 1000 {
		t.Errorf("unexpected prices: %+v", q)
	}
	if q.ChangePercent != 5.0 {
		t.Errorf("expected +5%%, got %.2f", q.ChangePercent)
	}
	if q.Volume != 25000 {
		t.Errorf("expected 25000 lots, got %d", q.Volume)
	}
}

func TestParseQuote_NoTradeFallsBackToBestBid(t *testing.T) {
	q, ok := parseQuote("1101", "台泥", "-", "40.0", "-", "-", "-", "0", "40.2_40.1_40.0_39.9_39.8")
	if !ok {
		t.Fatal("expected quote via best-bid fallback")
	}
	if q.Price != 40.2 {
		t.Errorf("expected best bid 40.2, got %.2f", q.Price)
	}
}

func TestParseQuote_NoPriceAtAllUsesPrevClose(t *testing.T) {
	q, ok := parseQuote("1102", "亞泥", "-", "35.0", "-", "-", "-", "-", "-")
	if !ok {
		t.Fatal("expected quote via prev-close fallback")
	}
	if q.Price != 35.0 || q.ChangePercent != 0 {
		t.Errorf("expected flat quote at prev close, got %+v", q)
	}
}

func TestParseQuote_MissingPrevCloseDropped(t *testing.T) {
	if _, ok := parseQuote("9999", "", "10.0", "-", "", "", "", "", ""); ok {
		t.Error("quote without previous close must be dropped")
	}
}

func TestSynthesizeCandle(t *testing.T) {
	q, _ := parseQuote("2330", "台積電", "1050.0", "1000.0", "1010.0", "1060.0", "1005.0", "25000", "")
	c := SynthesizeCandle(q)
	if c.Open != 1010 || c.High != 1060 || c.Low != 1005 || c.Close != 1050 {
		t.Errorf("unexpected candle: %+v", c)
	}
	if c.PrevClose != 1000 || c.Volume != 25000 {
		t.Errorf("unexpected candle extras: %+v", c)
	}
}
