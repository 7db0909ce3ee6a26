package pagination

import "testing"

func TestNormalizeClampsInputs(t *testing.T) {
	cases := []struct {
		name      string
		in        Params
		wantPage  int
		wantLimit int
	}{
		{"zero values", Params{}, 1, DefaultLimit},
		{"negative page", Params{Page: -3, Limit: 10}, 1, 10},
		{"limit over max", Params{Page: 2, Limit: 500}, 2, MaxLimit},
		{"limit at max", Params{Page: 1, Limit: 100}, 1, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("got page=%d limit=%d want page=%d limit=%d", got.Page, got.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 25}
	if p.Offset() != 50 {
		t.Fatalf("expected offset 50 got %d", p.Offset())
	}
}

func TestPages(t *testing.T) {
	p := Params{Page: 1, Limit: 25}
	if got := p.Pages(51); got != 3 {
		t.Fatalf("expected 3 pages got %d", got)
	}
	if got := p.Pages(0); got != 0 {
		t.Fatalf("expected 0 pages got %d", got)
	}
}
