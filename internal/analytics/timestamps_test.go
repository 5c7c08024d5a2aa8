package analytics

import (
	"testing"
	"time"
)

func TestSaleTimestampPriority(t *testing.T) {
	created := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	occurred := created.Add(2 * time.Second)

	if got := SaleTimestamp(created, occurred); !got.Equal(created) {
		t.Fatalf("expected created timestamp, got %v", got)
	}
	if got := SaleTimestamp(time.Time{}, occurred); !got.Equal(occurred) {
		t.Fatalf("expected fallback timestamp, got %v", got)
	}
}

func TestBusinessDateUsesStoreZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 01:30 UTC is still the previous evening in São Paulo.
	ts := time.Date(2025, 3, 2, 1, 30, 0, 0, time.UTC)
	if got := BusinessDate(ts, loc); got != "2025-03-01" {
		t.Fatalf("expected 2025-03-01, got %s", got)
	}
	if got := BusinessDate(ts, nil); got != "2025-03-02" {
		t.Fatalf("expected utc date 2025-03-02, got %s", got)
	}
}
