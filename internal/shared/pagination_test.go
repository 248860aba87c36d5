package shared

import "testing"

func TestNewPaginationNormalisesInput(t *testing.T) {
	p := NewPagination(0, 0, false)
	if p.Page != 1 || p.PageSize != 20 {
		t.Fatalf("expected defaults, got %+v", p)
	}
	p = NewPagination(2, 500, true)
	if p.PageSize != 100 {
		t.Fatalf("expected page size clamp, got %d", p.PageSize)
	}
}

func TestNewPaginationNeighbours(t *testing.T) {
	p := NewPagination(3, 10, true)
	if p.PrevPage != 2 || p.NextPage != 4 {
		t.Fatalf("unexpected neighbours: %+v", p)
	}
	p = NewPagination(1, 10, false)
	if p.PrevPage != 0 || p.NextPage != 0 {
		t.Fatalf("expected no neighbours: %+v", p)
	}
}
