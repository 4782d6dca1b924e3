package xparam

import "testing"

func TestParseBareFlag(t *testing.T) {
	p, err := Parse("xrestore")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Name != "xrestore" || p.HasValue {
		t.Fatalf("Parse(xrestore) = %+v", p)
	}
}

func TestParseNameValue(t *testing.T) {
	p, err := Parse("xbootsize=512")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Name != "xbootsize" || !p.HasValue || p.Value != "512" {
		t.Fatalf("Parse(xbootsize=512) = %+v", p)
	}
	v, err := p.Int()
	if err != nil || v != 512 {
		t.Fatalf("Int() = (%d, %v), want (512, nil)", v, err)
	}
}

func TestParseAllCommaSeparated(t *testing.T) {
	ps, err := ParseAll("xbootsize=512,xrestore,xvectornum=2")
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(ps) != 3 {
		t.Fatalf("ParseAll returned %d params, want 3", len(ps))
	}
	if ps[0].Name != "xbootsize" || ps[1].Name != "xrestore" || ps[2].Name != "xvectornum" {
		t.Fatalf("ParseAll names = %+v", ps)
	}
}

func TestParseRejectsInvalidCharacter(t *testing.T) {
	if _, err := Parse("x boot"); err == nil {
		t.Fatalf("expected error for space in knob name")
	}
}

func TestParseKnobsCollectsAcrossArgs(t *testing.T) {
	k, err := ParseKnobs([]string{"xbootsize=1024", "xvectornum=2,xrestore"})
	if err != nil {
		t.Fatalf("ParseKnobs: %v", err)
	}
	if !k.HasBootSize || k.BootSize != 1024 {
		t.Fatalf("BootSize = %+v", k)
	}
	if !k.HasVectorNum || k.VectorNum != 2 {
		t.Fatalf("VectorNum = %+v", k)
	}
	if !k.Restore {
		t.Fatalf("Restore not set: %+v", k)
	}
}
