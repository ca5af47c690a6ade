package core

import (
	"regexp"
	"strconv"
	"strings"
)

// parenRe matches balanced parentheses and their content so we can
// extract the base type name. Example: "VARCHAR(255)" -> "VARCHAR".
var parenRe = regexp.MustCompile(`\([^)]*\)`)

// wsRe collapses runs of whitespace into a single space after the
// parenthesized parts have been removed.
var wsRe = regexp.MustCompile(`\s+`)

// RawType is a parsed SQL type declaration such as "decimal(10,2) unsigned".
type RawType struct {
	Base     string
	Args     []string
	Unsigned bool
}

// ParseRawType splits a raw type declaration into its lower-cased base name,
// its parenthesized arguments and the unsigned modifier.
func ParseRawType(raw string) RawType {
	s := strings.ToLower(strings.TrimSpace(raw))
	var rt RawType

	if loc := parenRe.FindStringIndex(s); loc != nil {
		inner := s[loc[0]+1 : loc[1]-1]
		for a := range strings.SplitSeq(inner, ",") {
			rt.Args = append(rt.Args, strings.Trim(strings.TrimSpace(a), "'\""))
		}
	}
	s = parenRe.ReplaceAllString(s, " ")

	var words []string
	for _, w := range strings.Fields(s) {
		switch w {
		case "unsigned":
			rt.Unsigned = true
		case "signed", "zerofill":
		default:
			words = append(words, w)
		}
	}
	rt.Base = wsRe.ReplaceAllString(strings.Join(words, " "), " ")
	return rt
}

// IntArg returns the i-th argument as an integer, or 0 when it is missing or
// not a number.
func (rt RawType) IntArg(i int) int {
	if i >= len(rt.Args) {
		return 0
	}
	n, err := strconv.Atoi(rt.Args[i])
	if err != nil {
		return 0
	}
	return n
}

type rawMapping struct {
	Type  DataType
	Fixed bool
	// Length is the implicit length of tiered LOB types, e.g. TINYTEXT.
	Length int
}

var mysqlRawTypes = map[string]rawMapping{
	"tinyint":          {Type: DataTypeSmallInt},
	"smallint":         {Type: DataTypeSmallInt},
	"mediumint":        {Type: DataTypeInteger},
	"int":              {Type: DataTypeInteger},
	"integer":          {Type: DataTypeInteger},
	"bigint":           {Type: DataTypeBigInt},
	"bool":             {Type: DataTypeBoolean},
	"boolean":          {Type: DataTypeBoolean},
	"decimal":          {Type: DataTypeDecimal},
	"dec":              {Type: DataTypeDecimal},
	"numeric":          {Type: DataTypeDecimal},
	"fixed":            {Type: DataTypeDecimal},
	"float":            {Type: DataTypeFloat},
	"double":           {Type: DataTypeFloat},
	"double precision": {Type: DataTypeFloat},
	"real":             {Type: DataTypeFloat},
	"char":             {Type: DataTypeString, Fixed: true},
	"varchar":          {Type: DataTypeString},
	"enum":             {Type: DataTypeString},
	"set":              {Type: DataTypeString},
	"tinytext":         {Type: DataTypeText, Length: 255},
	"text":             {Type: DataTypeText, Length: 65535},
	"mediumtext":       {Type: DataTypeText, Length: 16777215},
	"longtext":         {Type: DataTypeText},
	"binary":           {Type: DataTypeBinary, Fixed: true},
	"varbinary":        {Type: DataTypeBinary},
	"tinyblob":         {Type: DataTypeBlob, Length: 255},
	"blob":             {Type: DataTypeBlob, Length: 65535},
	"mediumblob":       {Type: DataTypeBlob, Length: 16777215},
	"longblob":         {Type: DataTypeBlob},
	"date":             {Type: DataTypeDate},
	"year":             {Type: DataTypeDate},
	"datetime":         {Type: DataTypeDateTime},
	"timestamp":        {Type: DataTypeDateTime},
	"time":             {Type: DataTypeTime},
	"json":             {Type: DataTypeJSON},
	"uuid":             {Type: DataTypeGUID},
}

var postgresqlRawTypes = map[string]rawMapping{
	"smallint":                    {Type: DataTypeSmallInt},
	"int2":                        {Type: DataTypeSmallInt},
	"smallserial":                 {Type: DataTypeSmallInt},
	"integer":                     {Type: DataTypeInteger},
	"int":                         {Type: DataTypeInteger},
	"int4":                        {Type: DataTypeInteger},
	"serial":                      {Type: DataTypeInteger},
	"bigint":                      {Type: DataTypeBigInt},
	"int8":                        {Type: DataTypeBigInt},
	"bigserial":                   {Type: DataTypeBigInt},
	"boolean":                     {Type: DataTypeBoolean},
	"bool":                        {Type: DataTypeBoolean},
	"numeric":                     {Type: DataTypeDecimal},
	"decimal":                     {Type: DataTypeDecimal},
	"money":                       {Type: DataTypeDecimal},
	"real":                        {Type: DataTypeFloat},
	"float4":                      {Type: DataTypeFloat},
	"double precision":            {Type: DataTypeFloat},
	"float8":                      {Type: DataTypeFloat},
	"float":                       {Type: DataTypeFloat},
	"character varying":           {Type: DataTypeString},
	"varchar":                     {Type: DataTypeString},
	"character":                   {Type: DataTypeString, Fixed: true},
	"char":                        {Type: DataTypeString, Fixed: true},
	"bpchar":                      {Type: DataTypeString, Fixed: true},
	"text":                        {Type: DataTypeText},
	"bytea":                       {Type: DataTypeBlob},
	"date":                        {Type: DataTypeDate},
	"timestamp":                   {Type: DataTypeDateTime},
	"timestamp without time zone": {Type: DataTypeDateTime},
	"timestamptz":                 {Type: DataTypeDateTimeTz},
	"timestamp with time zone":    {Type: DataTypeDateTimeTz},
	"time":                        {Type: DataTypeTime},
	"time without time zone":      {Type: DataTypeTime},
	"uuid":                        {Type: DataTypeGUID},
	"json":                        {Type: DataTypeJSON},
	"jsonb":                       {Type: DataTypeJSON},
}

var sqlserverRawTypes = map[string]rawMapping{
	"tinyint":          {Type: DataTypeSmallInt},
	"smallint":         {Type: DataTypeSmallInt},
	"int":              {Type: DataTypeInteger},
	"bigint":           {Type: DataTypeBigInt},
	"bit":              {Type: DataTypeBoolean},
	"decimal":          {Type: DataTypeDecimal},
	"numeric":          {Type: DataTypeDecimal},
	"money":            {Type: DataTypeDecimal},
	"smallmoney":       {Type: DataTypeDecimal},
	"float":            {Type: DataTypeFloat},
	"real":             {Type: DataTypeFloat},
	"nvarchar":         {Type: DataTypeString},
	"varchar":          {Type: DataTypeString},
	"nchar":            {Type: DataTypeString, Fixed: true},
	"char":             {Type: DataTypeString, Fixed: true},
	"ntext":            {Type: DataTypeText},
	"text":             {Type: DataTypeText},
	"varbinary":        {Type: DataTypeBinary},
	"binary":           {Type: DataTypeBinary, Fixed: true},
	"image":            {Type: DataTypeBlob},
	"date":             {Type: DataTypeDate},
	"datetime":         {Type: DataTypeDateTime},
	"datetime2":        {Type: DataTypeDateTime},
	"smalldatetime":    {Type: DataTypeDateTime},
	"datetimeoffset":   {Type: DataTypeDateTimeTz},
	"time":             {Type: DataTypeTime},
	"uniqueidentifier": {Type: DataTypeGUID},
}

var sqliteRawTypes = map[string]rawMapping{
	"integer":           {Type: DataTypeInteger},
	"int":               {Type: DataTypeInteger},
	"mediumint":         {Type: DataTypeInteger},
	"tinyint":           {Type: DataTypeSmallInt},
	"smallint":          {Type: DataTypeSmallInt},
	"bigint":            {Type: DataTypeBigInt},
	"boolean":           {Type: DataTypeBoolean},
	"varchar":           {Type: DataTypeString},
	"nvarchar":          {Type: DataTypeString},
	"character varying": {Type: DataTypeString},
	"varying character": {Type: DataTypeString},
	"char":              {Type: DataTypeString, Fixed: true},
	"nchar":             {Type: DataTypeString, Fixed: true},
	"text":              {Type: DataTypeText},
	"clob":              {Type: DataTypeText},
	"blob":              {Type: DataTypeBlob},
	"":                  {Type: DataTypeBlob},
	"real":              {Type: DataTypeFloat},
	"double":            {Type: DataTypeFloat},
	"double precision":  {Type: DataTypeFloat},
	"float":             {Type: DataTypeFloat},
	"numeric":           {Type: DataTypeDecimal},
	"decimal":           {Type: DataTypeDecimal},
	"date":              {Type: DataTypeDate},
	"datetime":          {Type: DataTypeDateTime},
	"time":              {Type: DataTypeTime},
}

var db2RawTypes = map[string]rawMapping{
	"smallint":  {Type: DataTypeSmallInt},
	"integer":   {Type: DataTypeInteger},
	"int":       {Type: DataTypeInteger},
	"bigint":    {Type: DataTypeBigInt},
	"boolean":   {Type: DataTypeBoolean},
	"decimal":   {Type: DataTypeDecimal},
	"numeric":   {Type: DataTypeDecimal},
	"real":      {Type: DataTypeFloat},
	"double":    {Type: DataTypeFloat},
	"float":     {Type: DataTypeFloat},
	"decfloat":  {Type: DataTypeFloat},
	"character": {Type: DataTypeString, Fixed: true},
	"char":      {Type: DataTypeString, Fixed: true},
	"varchar":   {Type: DataTypeString},
	"clob":      {Type: DataTypeText},
	"dbclob":    {Type: DataTypeText},
	"xml":       {Type: DataTypeText},
	"blob":      {Type: DataTypeBlob},
	"binary":    {Type: DataTypeBinary, Fixed: true},
	"varbinary": {Type: DataTypeBinary},
	"date":      {Type: DataTypeDate},
	"timestamp": {Type: DataTypeDateTime},
	"time":      {Type: DataTypeTime},
}

var platformRawTypes = map[string]map[string]rawMapping{
	PlatformMySQL:      mysqlRawTypes,
	PlatformMariaDB:    mysqlRawTypes,
	PlatformPostgreSQL: postgresqlRawTypes,
	PlatformSQLServer:  sqlserverRawTypes,
	PlatformSQLite:     sqliteRawTypes,
	PlatformDB2:        db2RawTypes,
}

// ColumnFromRaw resolves a raw SQL type declaration as reported or written
// for platform into a column with its logical type, length, precision,
// scale, fixed and unsigned attributes. Registered custom types are matched
// by their declaration first.
func (r *TypeRegistry) ColumnFromRaw(platform, name, raw string) (*Column, error) {
	platform = strings.ToLower(platform)
	rt := ParseRawType(raw)

	if d, ok := r.byDeclaration(platform, rt.Base); ok {
		return &Column{Name: name, Type: d, Unsigned: rt.Unsigned}, nil
	}

	table, ok := platformRawTypes[platform]
	if !ok {
		return nil, &UnknownTypeError{Platform: platform, Type: raw}
	}
	m, ok := table[rt.Base]
	if !ok {
		return nil, &UnknownTypeError{Platform: platform, Type: raw}
	}

	if (platform == PlatformMySQL || platform == PlatformMariaDB) && rt.Base == "tinyint" && rt.IntArg(0) == 1 {
		m = rawMapping{Type: DataTypeBoolean}
	}
	if len(rt.Args) > 0 && rt.Args[0] == "max" {
		switch m.Type {
		case DataTypeString:
			m = rawMapping{Type: DataTypeText}
		case DataTypeBinary:
			m = rawMapping{Type: DataTypeBlob}
		}
		rt.Args = nil
	}

	d, ok := r.Lookup(string(m.Type))
	if !ok {
		return nil, &UnknownTypeError{Platform: platform, Type: raw}
	}

	col := &Column{Name: name, Type: d, Fixed: m.Fixed, Unsigned: rt.Unsigned}
	switch m.Type {
	case DataTypeString, DataTypeBinary:
		col.Length = rt.IntArg(0)
		if rt.Base == "enum" || rt.Base == "set" {
			col.Length = 0
		}
		if col.Length == 0 {
			col.Length = d.DefaultLength
		}
	case DataTypeText, DataTypeBlob:
		col.Length = m.Length
		if n := rt.IntArg(0); n > 0 {
			col.Length = n
		}
	case DataTypeDecimal:
		col.Precision = rt.IntArg(0)
		col.Scale = rt.IntArg(1)
	}
	return col, nil
}
