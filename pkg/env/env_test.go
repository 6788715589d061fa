package env

import "testing"

func TestGetTrimsAndFallsBack(t *testing.T) {
	t.Setenv("DAIRYMART_TEST_VALUE", "  json  ")
	if got := Get("DAIRYMART_TEST_VALUE", "console"); got != "json" {
		t.Fatalf("expected json got %q", got)
	}
	t.Setenv("DAIRYMART_TEST_VALUE", "   ")
	if got := Get("DAIRYMART_TEST_VALUE", "console"); got != "console" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}

func TestFirstReturnsEarliestSetKey(t *testing.T) {
	t.Setenv("DAIRYMART_TEST_A", "")
	t.Setenv("DAIRYMART_TEST_B", "b")
	t.Setenv("DAIRYMART_TEST_C", "c")
	if got := First("DAIRYMART_TEST_A", "DAIRYMART_TEST_B", "DAIRYMART_TEST_C"); got != "b" {
		t.Fatalf("expected b got %q", got)
	}
	if got := First("DAIRYMART_TEST_A"); got != "" {
		t.Fatalf("expected empty got %q", got)
	}
}
