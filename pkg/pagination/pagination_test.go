package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Limit: DefaultLimit, Offset: 0}},
		{"negative", Params{Limit: -5, Offset: -3}, Params{Limit: DefaultLimit, Offset: 0}},
		{"capped", Params{Limit: 500, Offset: 40}, Params{Limit: MaxLimit, Offset: 40}},
		{"passthrough", Params{Limit: 10, Offset: 30}, Params{Limit: 10, Offset: 30}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Fatalf("%s: Normalize() = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestPageForAndHasMore(t *testing.T) {
	page := PageFor(Params{Limit: 10, Offset: 0}, 25)
	if page.Total != 25 || page.Limit != 10 {
		t.Fatalf("unexpected page %+v", page)
	}
	if !page.HasMore() {
		t.Fatal("expected more rows after first page")
	}

	last := PageFor(Params{Limit: 10, Offset: 20}, 25)
	if last.HasMore() {
		t.Fatal("expected final page to report no more rows")
	}
}
