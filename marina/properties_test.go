package marina

import "testing"

func TestCostArithmetic(t *testing.T) {
	if !Infinity().IsInfinity() {
		t.Error("Infinity should report IsInfinity")
	}
	if ZeroCost().IsInfinity() {
		t.Error("zero is not infinity")
	}
	if !Cost(1).Less(Cost(2)) {
		t.Error("1 < 2")
	}
	if Cost(2).Less(Cost(2)) {
		t.Error("2 is not less than itself")
	}
	if !Cost(1e18).Less(Infinity()) {
		t.Error("every finite cost is below infinity")
	}
	if got := Cost(1).Add(Cost(2)); got != Cost(3) {
		t.Errorf("1+2 = %v", got)
	}
	if !Infinity().Add(Cost(5)).IsInfinity() {
		t.Error("infinity absorbs addition")
	}
}

func TestDataOrderSatisfies(t *testing.T) {
	any := AnyOrder()
	sid := OrderedBy("S.sid")
	sidAge := OrderedBy("S.sid", "S.age")
	age := OrderedBy("S.age")

	tests := []struct {
		name      string
		delivered DataOrder
		required  DataOrder
		want      bool
	}{
		{"anything satisfies any", any, any, true},
		{"ordered satisfies any", sid, any, true},
		{"any does not satisfy an order", any, sid, false},
		{"exact order satisfies itself", sid, sid, true},
		{"longer order satisfies its prefix", sidAge, sid, true},
		{"prefix does not satisfy longer order", sid, sidAge, false},
		{"different column does not satisfy", age, sid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.delivered.Satisfies(tt.required); got != tt.want {
				t.Errorf("%s satisfies %s = %v, want %v", tt.delivered, tt.required, got, tt.want)
			}
		})
	}
}

func TestDataOrderDirections(t *testing.T) {
	asc := OrderedBy("S.sid")
	desc := DataOrder{Columns: []OrderColumn{{Column: "S.sid", Descending: true}}}
	if asc.Satisfies(desc) {
		t.Error("ascending must not satisfy a descending requirement")
	}
	if !desc.Satisfies(desc) {
		t.Error("an order satisfies itself")
	}
}

func TestPhysicalPropertiesKey(t *testing.T) {
	a := RequireOrder(OrderedBy("S.sid"))
	b := RequireOrder(OrderedBy("S.sid"))
	c := AnyProperties()
	if a.Key() != b.Key() {
		t.Error("equal properties must share a key")
	}
	if a.Key() == c.Key() {
		t.Error("distinct properties must have distinct keys")
	}
	if !a.Equals(b) || a.Equals(c) {
		t.Error("Equals disagrees with Key")
	}
}
