package catalog

import "github.com/tomyedwab/libsqlhttp/libsql/meta"

// Key rule and deferrability codes, as used by JDBC DatabaseMetaData.
const (
	KeyCascade    = 0
	KeyRestrict   = 1
	KeySetNull    = 2
	KeyNoAction   = 3
	KeySetDefault = 4

	KeyInitiallyDeferred  = 5
	KeyInitiallyImmediate = 6
	KeyNotDeferrable      = 7
)

// TableIndexOther is the index TYPE reported for every SQLite index.
const TableIndexOther = 3

// SQL type codes reported in the DATA_TYPE column of Columns.
const (
	TypeInteger = 4
	TypeNumeric = 2
	TypeDouble  = 8
	TypeVarchar = 12
	TypeBlob    = 2004
)

// RuleCode maps a foreign key action to its catalog code.
func RuleCode(r meta.Rule) int {
	switch r {
	case meta.RuleCascade:
		return KeyCascade
	case meta.RuleRestrict:
		return KeyRestrict
	case meta.RuleSetNull:
		return KeySetNull
	case meta.RuleSetDefault:
		return KeySetDefault
	default:
		return KeyNoAction
	}
}
