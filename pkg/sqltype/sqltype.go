// Package sqltype models the PostgreSQL types this tool can describe, plus
// the trivalent nullability attached to every inferred input and output.
package sqltype

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind discriminates SqlType values.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindInt2
	KindInt4
	KindInt8
	KindSmallSerial
	KindSerial
	KindBigSerial
	KindDecimal
	KindTimestamp
	KindDate
	KindTime
	KindInterval
	KindChar
	KindVarChar
	KindBit
	KindVarBit
	KindText
	KindJson
	KindJsonb
	KindFloat4
	KindFloat8
	KindEnum
)

// SqlType is a tagged variant over Kind. Only the fields belonging to the
// kind are meaningful: Length for Char/VarChar/Bit/VarBit, Precision and
// PrecisionRadix for Decimal, WithTimezone for Timestamp/Time, EnumName and
// EnumTags for Enum.
type SqlType struct {
	Kind           Kind
	Length         *int32
	Precision      *int32
	PrecisionRadix *int32
	WithTimezone   bool
	EnumName       string
	EnumTags       []string
}

func Bool() SqlType        { return SqlType{Kind: KindBool} }
func Int2() SqlType        { return SqlType{Kind: KindInt2} }
func Int4() SqlType        { return SqlType{Kind: KindInt4} }
func Int8() SqlType        { return SqlType{Kind: KindInt8} }
func SmallSerial() SqlType { return SqlType{Kind: KindSmallSerial} }
func Serial() SqlType      { return SqlType{Kind: KindSerial} }
func BigSerial() SqlType   { return SqlType{Kind: KindBigSerial} }
func Date() SqlType        { return SqlType{Kind: KindDate} }
func Interval() SqlType    { return SqlType{Kind: KindInterval} }
func Text() SqlType        { return SqlType{Kind: KindText} }
func Json() SqlType        { return SqlType{Kind: KindJson} }
func Jsonb() SqlType       { return SqlType{Kind: KindJsonb} }
func Float4() SqlType      { return SqlType{Kind: KindFloat4} }
func Float8() SqlType      { return SqlType{Kind: KindFloat8} }
func Unknown() SqlType     { return SqlType{Kind: KindUnknown} }

func Decimal(precision, radix *int32) SqlType {
	return SqlType{Kind: KindDecimal, Precision: precision, PrecisionRadix: radix}
}

func Timestamp(tz bool) SqlType { return SqlType{Kind: KindTimestamp, WithTimezone: tz} }
func Time(tz bool) SqlType      { return SqlType{Kind: KindTime, WithTimezone: tz} }

func Char(length *int32) SqlType    { return SqlType{Kind: KindChar, Length: length} }
func VarChar(length *int32) SqlType { return SqlType{Kind: KindVarChar, Length: length} }
func Bit(length *int32) SqlType     { return SqlType{Kind: KindBit, Length: length} }
func VarBit(length *int32) SqlType  { return SqlType{Kind: KindVarBit, Length: length} }

// Enum carries the type name and its ordered label set.
func Enum(name string, tags []string) SqlType {
	return SqlType{Kind: KindEnum, EnumName: name, EnumTags: tags}
}

// IsNumeric reports whether the type participates in the numeric rank order.
func (t SqlType) IsNumeric() bool {
	_, ok := t.NumericRank()
	return ok
}

// IsText reports whether the type is a character type.
func (t SqlType) IsText() bool {
	switch t.Kind {
	case KindChar, KindVarChar, KindText:
		return true
	}
	return false
}

// NumericRank orders the numeric subset: Int2 < Int4 < Int8 < Decimal <
// Float4 < Float8. Serial kinds rank with their integer storage type.
func (t SqlType) NumericRank() (int, bool) {
	switch t.Kind {
	case KindInt2, KindSmallSerial:
		return 1, true
	case KindInt4, KindSerial:
		return 2, true
	case KindInt8, KindBigSerial:
		return 3, true
	case KindDecimal:
		return 4, true
	case KindFloat4:
		return 5, true
	case KindFloat8:
		return 6, true
	}
	return 0, false
}

// Equal compares two types structurally, including length/precision metadata
// and enum labels.
func (t SqlType) Equal(other SqlType) bool {
	if t.Kind != other.Kind || t.WithTimezone != other.WithTimezone {
		return false
	}
	if t.EnumName != other.EnumName || len(t.EnumTags) != len(other.EnumTags) {
		return false
	}
	for i, tag := range t.EnumTags {
		if other.EnumTags[i] != tag {
			return false
		}
	}
	return eqInt32(t.Length, other.Length) &&
		eqInt32(t.Precision, other.Precision) &&
		eqInt32(t.PrecisionRadix, other.PrecisionRadix)
}

func eqInt32(a, b *int32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (t SqlType) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInt2, KindSmallSerial:
		return "i16"
	case KindInt4, KindSerial:
		return "i32"
	case KindInt8, KindBigSerial:
		return "i64"
	case KindDecimal:
		if t.Precision != nil && t.PrecisionRadix != nil {
			return fmt.Sprintf("decimal(%d, %d)", *t.Precision, *t.PrecisionRadix)
		}
		return "decimal"
	case KindTimestamp:
		if t.WithTimezone {
			return "timestamp with timezone"
		}
		return "timestamp without timezone"
	case KindDate:
		return "date"
	case KindTime:
		if t.WithTimezone {
			return "time with timezone"
		}
		return "time without timezone"
	case KindInterval:
		return "interval"
	case KindChar:
		if t.Length != nil {
			return fmt.Sprintf("char(%d)", *t.Length)
		}
		return "char(???)"
	case KindVarChar:
		if t.Length != nil {
			return fmt.Sprintf("varchar(%d)", *t.Length)
		}
		return "varchar(???)"
	case KindBit:
		if t.Length != nil {
			return fmt.Sprintf("bit(%d)", *t.Length)
		}
		return "bit(1)"
	case KindVarBit:
		if t.Length != nil {
			return fmt.Sprintf("varbit(%d)", *t.Length)
		}
		return "varbit"
	case KindText:
		return "text"
	case KindJson:
		return "json"
	case KindJsonb:
		return "jsonb"
	case KindFloat4:
		return "f32"
	case KindFloat8:
		return "f64"
	case KindEnum:
		return t.EnumName
	}
	return "unknown"
}

// UnrecognizedTypeError reports a catalog type name outside the built-in
// mapping. Callers degrade the type to Unknown instead of aborting.
type UnrecognizedTypeError struct {
	SqlType string
}

func (e *UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("unrecognized SQL type %s", e.SqlType)
}

// ParseTypeName maps a driver-reported type name onto a SqlType. The table
// accepts both the terse wire names (int4, bpchar, timestamptz) and the
// spelled-out catalog names. An unknown name yields Unknown alongside an
// UnrecognizedTypeError so callers can warn and continue.
func ParseTypeName(name string) (SqlType, error) {
	switch strings.ToUpper(name) {
	case "BOOL", "BOOLEAN":
		return Bool(), nil
	case "SMALLINT", "INT2":
		return Int2(), nil
	case "INT", "INTEGER", "INT4":
		return Int4(), nil
	case "BIGINT", "INT8":
		return Int8(), nil
	case "SMALLSERIAL":
		return SmallSerial(), nil
	case "SERIAL":
		return Serial(), nil
	case "BIGSERIAL":
		return BigSerial(), nil
	case "NUMERIC", "DECIMAL":
		return Decimal(nil, nil), nil
	case "TIMESTAMP", "TIMESTAMP WITHOUT TIME ZONE":
		return Timestamp(false), nil
	case "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE":
		return Timestamp(true), nil
	case "TIME", "TIME WITHOUT TIME ZONE":
		return Time(false), nil
	case "TIMETZ", "TIME WITH TIME ZONE":
		return Time(true), nil
	case "DATE":
		return Date(), nil
	case "CHAR", "BPCHAR", "CHARACTER":
		return Char(nil), nil
	case "VARCHAR", "CHARACTER VARYING":
		return VarChar(nil), nil
	case "BIT":
		return Bit(nil), nil
	case "VARBIT", "BIT VARYING":
		return VarBit(nil), nil
	case "TEXT":
		return Text(), nil
	case "JSON":
		return Json(), nil
	case "JSONB":
		return Jsonb(), nil
	case "DOUBLE PRECISION", "FLOAT8":
		return Float8(), nil
	case "REAL", "FLOAT4":
		return Float4(), nil
	case "INTERVAL":
		return Interval(), nil
	}
	return Unknown(), &UnrecognizedTypeError{SqlType: name}
}

func (k Kind) variantName() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindInt2:
		return "Int2"
	case KindInt4:
		return "Int4"
	case KindInt8:
		return "Int8"
	case KindSmallSerial:
		return "SmallSerial"
	case KindSerial:
		return "Serial"
	case KindBigSerial:
		return "BigSerial"
	case KindDecimal:
		return "Decimal"
	case KindTimestamp:
		return "Timestamp"
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	case KindInterval:
		return "Interval"
	case KindChar:
		return "Char"
	case KindVarChar:
		return "VarChar"
	case KindBit:
		return "Bit"
	case KindVarBit:
		return "VarBit"
	case KindText:
		return "Text"
	case KindJson:
		return "Json"
	case KindJsonb:
		return "Jsonb"
	case KindFloat4:
		return "Float4"
	case KindFloat8:
		return "Float8"
	case KindEnum:
		return "Enum"
	}
	return "Unknown"
}

type lengthPayload struct {
	Length *int32 `json:"length"`
}

type decimalPayload struct {
	Precision      *int32 `json:"precision"`
	PrecisionRadix *int32 `json:"precision_radix"`
}

type tzPayload struct {
	Tz bool `json:"tz"`
}

type enumPayload struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// MarshalJSON emits the externally tagged variant shape: bare kinds as the
// variant name string, parameterized kinds as a single-key object.
func (t SqlType) MarshalJSON() ([]byte, error) {
	name := t.Kind.variantName()
	var payload any
	switch t.Kind {
	case KindDecimal:
		payload = decimalPayload{Precision: t.Precision, PrecisionRadix: t.PrecisionRadix}
	case KindTimestamp, KindTime:
		payload = tzPayload{Tz: t.WithTimezone}
	case KindChar, KindVarChar, KindBit, KindVarBit:
		payload = lengthPayload{Length: t.Length}
	case KindEnum:
		tags := t.EnumTags
		if tags == nil {
			tags = []string{}
		}
		payload = enumPayload{Name: t.EnumName, Tags: tags}
	default:
		return json.Marshal(name)
	}
	return json.Marshal(map[string]any{name: payload})
}

func (t *SqlType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return t.unmarshalBare(name)
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	for name, raw := range tagged {
		return t.unmarshalTagged(name, raw)
	}
	return fmt.Errorf("empty sql type object")
}

func (t *SqlType) unmarshalBare(name string) error {
	for kind := KindUnknown; kind <= KindEnum; kind++ {
		if kind.variantName() == name {
			*t = SqlType{Kind: kind}
			return nil
		}
	}
	return fmt.Errorf("unknown sql type variant %q", name)
}

func (t *SqlType) unmarshalTagged(name string, raw json.RawMessage) error {
	switch name {
	case "Decimal":
		var p decimalPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		*t = Decimal(p.Precision, p.PrecisionRadix)
	case "Timestamp", "Time":
		var p tzPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if name == "Timestamp" {
			*t = Timestamp(p.Tz)
		} else {
			*t = Time(p.Tz)
		}
	case "Char", "VarChar", "Bit", "VarBit":
		var p lengthPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		switch name {
		case "Char":
			*t = Char(p.Length)
		case "VarChar":
			*t = VarChar(p.Length)
		case "Bit":
			*t = Bit(p.Length)
		default:
			*t = VarBit(p.Length)
		}
	case "Enum":
		var p enumPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		*t = Enum(p.Name, p.Tags)
	default:
		return fmt.Errorf("unknown sql type variant %q", name)
	}
	return nil
}
