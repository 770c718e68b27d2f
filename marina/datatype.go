package marina

import "fmt"

// DataType identifies a SQL column type.
type DataType uint8

const (
	TypeUnknown DataType = iota
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDouble
	TypeChar
	TypeVarChar
	TypeDate
	TypeTimestamp
)

// TypeFamily groups types that promote among each other.
type TypeFamily uint8

const (
	FamilyUnknown TypeFamily = iota
	FamilyInteger
	FamilyFloating
	FamilyString
	FamilyTemporal
)

// Family returns the promotion family of a type.
func (t DataType) Family() TypeFamily {
	switch t {
	case TypeTinyInt, TypeSmallInt, TypeInt, TypeBigInt:
		return FamilyInteger
	case TypeFloat, TypeDouble:
		return FamilyFloating
	case TypeChar, TypeVarChar:
		return FamilyString
	case TypeDate, TypeTimestamp:
		return FamilyTemporal
	default:
		return FamilyUnknown
	}
}

// rank orders types within a family, wider last.
func (t DataType) rank() int {
	switch t {
	case TypeTinyInt:
		return 1
	case TypeSmallInt:
		return 2
	case TypeInt:
		return 3
	case TypeBigInt:
		return 4
	case TypeFloat:
		return 1
	case TypeDouble:
		return 2
	case TypeChar:
		return 1
	case TypeVarChar:
		return 2
	case TypeDate:
		return 1
	case TypeTimestamp:
		return 2
	default:
		return 0
	}
}

// fitsInFloat reports whether every value of an integer type is exactly
// representable in a 32-bit float (24-bit mantissa).
func (t DataType) fitsInFloat() bool {
	return t == TypeTinyInt || t == TypeSmallInt
}

// CommonType returns the type both operands promote to for comparison, or
// false if the types are incompatible. The lattice: TINYINT < SMALLINT <
// INT < BIGINT within integers, FLOAT < DOUBLE within floating point.
// Mixing an integer with a floating type yields DOUBLE, unless the floating
// side is narrower than DOUBLE and the integer fits in FLOAT, which yields
// FLOAT. String and temporal types only promote within their own family.
// CommonType is commutative.
func CommonType(a, b DataType) (DataType, bool) {
	fa, fb := a.Family(), b.Family()
	if fa == FamilyUnknown || fb == FamilyUnknown {
		return TypeUnknown, false
	}
	if fa == fb {
		if a.rank() >= b.rank() {
			return a, true
		}
		return b, true
	}
	// Cross-family promotion only between integers and floating point.
	if fa == FamilyFloating && fb == FamilyInteger {
		return commonNumeric(b, a), true
	}
	if fa == FamilyInteger && fb == FamilyFloating {
		return commonNumeric(a, b), true
	}
	return TypeUnknown, false
}

func commonNumeric(integer, floating DataType) DataType {
	if floating == TypeFloat && integer.fitsInFloat() {
		return TypeFloat
	}
	return TypeDouble
}

// String returns the SQL spelling of the type.
func (t DataType) String() string {
	switch t {
	case TypeTinyInt:
		return "TINYINT"
	case TypeSmallInt:
		return "SMALLINT"
	case TypeInt:
		return "INT"
	case TypeBigInt:
		return "BIGINT"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeChar:
		return "CHAR"
	case TypeVarChar:
		return "VARCHAR"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}
