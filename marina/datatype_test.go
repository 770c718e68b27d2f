package marina

import "testing"

func TestCommonTypeWithinFamilies(t *testing.T) {
	tests := []struct {
		name string
		a, b DataType
		want DataType
	}{
		{"tinyint widens to int", TypeTinyInt, TypeInt, TypeInt},
		{"smallint widens to bigint", TypeSmallInt, TypeBigInt, TypeBigInt},
		{"int stays int", TypeInt, TypeInt, TypeInt},
		{"float widens to double", TypeFloat, TypeDouble, TypeDouble},
		{"char widens to varchar", TypeChar, TypeVarChar, TypeVarChar},
		{"date widens to timestamp", TypeDate, TypeTimestamp, TypeTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CommonType(tt.a, tt.b)
			if !ok {
				t.Fatalf("CommonType(%s, %s) not comparable", tt.a, tt.b)
			}
			if got != tt.want {
				t.Errorf("CommonType(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCommonTypeCrossFamily(t *testing.T) {
	// Small integers fit in FLOAT; larger ones force DOUBLE.
	if got, _ := CommonType(TypeSmallInt, TypeFloat); got != TypeFloat {
		t.Errorf("smallint/float = %s, want FLOAT", got)
	}
	if got, _ := CommonType(TypeTinyInt, TypeFloat); got != TypeFloat {
		t.Errorf("tinyint/float = %s, want FLOAT", got)
	}
	if got, _ := CommonType(TypeInt, TypeFloat); got != TypeDouble {
		t.Errorf("int/float = %s, want DOUBLE", got)
	}
	if got, _ := CommonType(TypeBigInt, TypeDouble); got != TypeDouble {
		t.Errorf("bigint/double = %s, want DOUBLE", got)
	}
	if got, _ := CommonType(TypeInt, TypeDouble); got != TypeDouble {
		t.Errorf("int/double = %s, want DOUBLE", got)
	}
}

func TestCommonTypeIncompatible(t *testing.T) {
	incompatible := [][2]DataType{
		{TypeInt, TypeVarChar},
		{TypeVarChar, TypeDate},
		{TypeFloat, TypeTimestamp},
		{TypeChar, TypeDouble},
	}
	for _, pair := range incompatible {
		if _, ok := CommonType(pair[0], pair[1]); ok {
			t.Errorf("CommonType(%s, %s) should not be comparable", pair[0], pair[1])
		}
	}
}

func TestCommonTypeCommutative(t *testing.T) {
	all := []DataType{
		TypeTinyInt, TypeSmallInt, TypeInt, TypeBigInt,
		TypeFloat, TypeDouble,
		TypeChar, TypeVarChar,
		TypeDate, TypeTimestamp,
	}
	for _, a := range all {
		for _, b := range all {
			ab, okAB := CommonType(a, b)
			ba, okBA := CommonType(b, a)
			if okAB != okBA || ab != ba {
				t.Errorf("CommonType not commutative for (%s, %s): (%s,%v) vs (%s,%v)",
					a, b, ab, okAB, ba, okBA)
			}
		}
	}
}
