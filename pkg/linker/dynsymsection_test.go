package linker

import "testing"

func TestDynsymSectionAddIsIdempotent(t *testing.T) {
	ctx := NewContext()
	ctx.Dynsym = NewDynsymSection()
	sym := NewSymbol("foo")

	ctx.Dynsym.Add(ctx, sym)
	idx := sym.GetDynsymIdx(ctx)
	if idx != 1 {
		t.Fatalf("got DynsymIdx=%d, want 1 (slot 0 is the null entry)", idx)
	}

	ctx.Dynsym.Add(ctx, sym)
	if sym.GetDynsymIdx(ctx) != idx {
		t.Errorf("expected a second Add of the same symbol to keep its original slot")
	}
	if len(ctx.Dynsym.Symbols) != 2 {
		t.Errorf("got %d dynsym entries, want 2 (null + foo)", len(ctx.Dynsym.Symbols))
	}
}

func TestDynsymSectionFinalizeInternsNames(t *testing.T) {
	ctx := NewContext()
	ctx.Dynsym = NewDynsymSection()
	ctx.Dynstr = NewDynstrSection()
	sym := NewSymbol("my_symbol")
	ctx.Dynsym.Add(ctx, sym)

	ctx.Dynsym.Finalize(ctx)

	if _, ok := ctx.Dynstr.offsets["my_symbol"]; !ok {
		t.Fatalf("expected Finalize to have interned the symbol's name into .dynstr")
	}
}
