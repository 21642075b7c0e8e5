package device

import (
	"slices"
	"testing"
)

func TestRecord_Get(t *testing.T) {
	rec := NewRecord(map[string]string{PowerSwitch: PowerOn, WindSpeed: "3"})

	tests := []struct {
		identifier string
		wantValue  string
		wantOK     bool
	}{
		{PowerSwitch, "1", true},
		{WindSpeed, "3", true},
		{"Missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			got, ok := rec.Get(tt.identifier)
			if got != tt.wantValue || ok != tt.wantOK {
				t.Errorf("Get(%q) = (%q, %v), want (%q, %v)", tt.identifier, got, ok, tt.wantValue, tt.wantOK)
			}
		})
	}
}

func TestRecord_Nil(t *testing.T) {
	var rec *Record

	if v, ok := rec.Get(PowerSwitch); v != "" || ok {
		t.Errorf("nil Get() = (%q, %v), want (\"\", false)", v, ok)
	}
	if rec.Len() != 0 {
		t.Errorf("nil Len() = %d, want 0", rec.Len())
	}
	if vals := rec.Values(); vals == nil || len(vals) != 0 {
		t.Errorf("nil Values() = %v, want empty map", vals)
	}
	if rec.Identifiers() != nil {
		t.Error("nil Identifiers() should be nil")
	}
}

func TestRecord_Immutable(t *testing.T) {
	src := map[string]string{PowerSwitch: PowerOff}
	rec := NewRecord(src)

	src[PowerSwitch] = PowerOn
	if v, _ := rec.Get(PowerSwitch); v != PowerOff {
		t.Errorf("record changed with source map: %q", v)
	}

	vals := rec.Values()
	vals[PowerSwitch] = PowerOn
	if v, _ := rec.Get(PowerSwitch); v != PowerOff {
		t.Errorf("record changed through Values(): %q", v)
	}
}

func TestRecord_IdentifiersAndEqual(t *testing.T) {
	a := NewRecord(map[string]string{WindSpeed: "1", PowerSwitch: "0"})
	b := NewRecord(map[string]string{PowerSwitch: "0", WindSpeed: "1"})
	c := NewRecord(map[string]string{PowerSwitch: "1"})

	if got := a.Identifiers(); !slices.Equal(got, []string{PowerSwitch, WindSpeed}) {
		t.Errorf("Identifiers() = %v", got)
	}
	if !a.Equal(b) {
		t.Error("a and b should be equal")
	}
	if a.Equal(c) {
		t.Error("a and c should differ")
	}
	if !NewRecord(nil).Equal(nil) {
		t.Error("empty record should equal nil record")
	}
}

func TestDevice_DisplayName(t *testing.T) {
	if got := (Device{Address: "0a12", Name: "Bedroom fan"}).DisplayName(); got != "Bedroom fan" {
		t.Errorf("DisplayName() = %q", got)
	}
	if got := (Device{Address: "0a12"}).DisplayName(); got != "0a12" {
		t.Errorf("DisplayName() without name = %q, want address", got)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	cat := DefaultCatalog()

	for _, typeID := range []string{TypeFanMultiSpeed, TypeFanDualSpeed} {
		configs, ok := cat.Lookup(typeID)
		if !ok || len(configs) != 1 {
			t.Fatalf("Lookup(%q) = %v, %v", typeID, configs, ok)
		}
		if configs[0].Platform != PlatformFan {
			t.Errorf("Lookup(%q) platform = %q, want fan", typeID, configs[0].Platform)
		}
		if !slices.Equal(configs[0].Identifiers, []string{PowerSwitch, WindSpeed}) {
			t.Errorf("Lookup(%q) identifiers = %v", typeID, configs[0].Identifiers)
		}
	}

	if _, ok := cat.Lookup("999"); ok {
		t.Error("Lookup(999) should not be found")
	}
}

func TestCatalog_LookupReturnsCopy(t *testing.T) {
	cat := DefaultCatalog()

	configs, _ := cat.Lookup(TypeFanDualSpeed)
	configs[0].Identifiers[0] = "Mutated"

	again, _ := cat.Lookup(TypeFanDualSpeed)
	if again[0].Identifiers[0] != PowerSwitch {
		t.Error("Lookup exposed catalogue internals")
	}
}

func TestCatalog_EntitiesFor(t *testing.T) {
	cat := DefaultCatalog()

	if got := cat.EntitiesFor(TypeFanMultiSpeed, PlatformFan); len(got) != 1 {
		t.Errorf("EntitiesFor(fan type, fan) = %v, want 1 config", got)
	}
	if got := cat.EntitiesFor(TypeSwitch, PlatformFan); len(got) != 0 {
		t.Errorf("EntitiesFor(switch type, fan) = %v, want none", got)
	}
	if got := cat.EntitiesFor("999", PlatformFan); len(got) != 0 {
		t.Errorf("EntitiesFor(unknown, fan) = %v, want none", got)
	}
}
