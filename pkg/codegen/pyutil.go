package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

// EscapeString backslash-escapes the quote characters Python string
// literals cannot carry verbatim.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// ToPascal converts snake_case or mixedCase names to PascalCase.
func ToPascal(mixed string) string {
	var out []rune
	var current []rune
	flush := func() {
		out = append(out, current...)
		current = current[:0]
	}
	for _, ch := range mixed {
		isSnake := ch == '_'
		if unicode.IsUpper(ch) || isSnake {
			flush()
		}
		if isSnake {
			continue
		}
		if len(current) == 0 {
			current = append(current, unicode.ToUpper(ch))
		} else {
			current = append(current, unicode.ToLower(ch))
		}
	}
	flush()
	return string(out)
}

func pyLiteral(tags []string) string {
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = fmt.Sprintf("%q", tag)
	}
	return "Literal[" + strings.Join(quoted, ", ") + "]"
}

// pyBaseType maps a SqlType to its Python annotation. Pydantic mode uses the
// timezone-aware datetime markers.
func pyBaseType(typ sqltype.SqlType, pydantic bool) string {
	switch typ.Kind {
	case sqltype.KindBool:
		return "bool"
	case sqltype.KindInt2, sqltype.KindInt4, sqltype.KindInt8,
		sqltype.KindSmallSerial, sqltype.KindSerial, sqltype.KindBigSerial:
		return "int"
	case sqltype.KindDecimal:
		return "Decimal"
	case sqltype.KindTimestamp:
		if pydantic {
			if typ.WithTimezone {
				return "AwareDatetime"
			}
			return "NaiveDatetime"
		}
		return "datetime"
	case sqltype.KindDate:
		return "date"
	case sqltype.KindTime:
		return "time"
	case sqltype.KindInterval:
		return "timedelta"
	case sqltype.KindChar, sqltype.KindVarChar, sqltype.KindText,
		sqltype.KindBit, sqltype.KindVarBit,
		sqltype.KindJson, sqltype.KindJsonb:
		return "str"
	case sqltype.KindFloat4, sqltype.KindFloat8:
		return "float"
	case sqltype.KindEnum:
		return pyLiteral(typ.EnumTags)
	}
	return "Any"
}

func withOptional(base string, nullable sqltype.Nullability) string {
	if nullable == sqltype.NullableFalse {
		return base
	}
	// Unknown is treated as nullable so callers stay honest.
	return base + " | None"
}

func pyInputType(item sqltype.QueryItem, pydantic bool) string {
	return withOptional(pyBaseType(item.SqlType, pydantic), item.Nullable)
}

// pyOutputType differs from the input mapping for json columns, which
// SQLAlchemy hands back already decoded.
func pyOutputType(item sqltype.QueryItem, pydantic bool) string {
	switch item.SqlType.Kind {
	case sqltype.KindJson, sqltype.KindJsonb:
		return withOptional("Json", item.Nullable)
	}
	return pyInputType(item, pydantic)
}
