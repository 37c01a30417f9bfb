package arena

import "testing"

func TestAllocTracksSlotsAndBytes(t *testing.T) {
	a := New()
	a.Alloc(4)
	a.Alloc(10)
	if a.Slots() != 2 {
		t.Errorf("Slots() = %d, want 2", a.Slots())
	}
	if a.Bytes() != 14 {
		t.Errorf("Bytes() = %d, want 14", a.Bytes())
	}
}

func TestAllocStringInternsACopy(t *testing.T) {
	a := New()
	src := []byte("flow")
	s := a.AllocString(string(src))
	if s != "flow" {
		t.Fatalf("AllocString = %q, want %q", s, "flow")
	}
	src[0] = 'g' // mutate the original backing array
	if s != "flow" {
		t.Errorf("AllocString result changed after mutating the source: %q", s)
	}
}

func TestFreeAllReportsTotalAndResetsBookkeeping(t *testing.T) {
	a := New()
	a.AllocString("abc")
	a.AllocString("de")
	total := a.FreeAll()
	if total != 5 {
		t.Errorf("FreeAll() = %d, want 5", total)
	}
	if a.Slots() != 0 || a.Bytes() != 0 {
		t.Errorf("bookkeeping not reset after FreeAll: slots=%d bytes=%d", a.Slots(), a.Bytes())
	}
}

func TestAllocAfterFreeAllPanics(t *testing.T) {
	a := New()
	a.FreeAll()
	defer func() {
		if recover() == nil {
			t.Fatal("Alloc after FreeAll did not panic")
		}
	}()
	a.Alloc(1)
}
