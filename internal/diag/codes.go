package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Лексер паттернов команд
	LexInfo               Code = 1000
	LexEmptyPattern       Code = 1001
	LexIllegalChar        Code = 1002
	LexUnterminatedArg    Code = 1003
	LexEmptyName          Code = 1004
	LexUnterminatedAlias  Code = 1005
	LexArgumentAlias      Code = 1006
	LexAliasNotAllowed    Code = 1007
	LexMisplacedDelimiter Code = 1008

	// Дерево пространства имён
	TreeInfo           Code = 2000
	TreeKindMismatch   Code = 2001
	TreeDuplicateAlias Code = 2002

	// Связывание элементов с ролями
	BindInfo            Code = 3000
	BindUnrecognized    Code = 3001
	BindSlotTaken       Code = 3002
	BindUnresolvedParam Code = 3003
	BindLetUnresolved   Code = 3004
	BindUnusedTarget    Code = 3005
	BindLetDuplicate    Code = 3006
	BindLetUnknownParam Code = 3007

	// Анализ и линты
	AnaInfo             Code = 4000
	AnaMissingConverter Code = 4001
	LintArgumentFirst   Code = 4101
	LintDuplicateAlias  Code = 4102
	LintDuplicateCmd    Code = 4103
	LintBindingPattern  Code = 4104
	LintLetTypeMismatch Code = 4105
	LintMethodSignature Code = 4106
	LintAccessibility   Code = 4107

	// Хосты (интроспекция программы)
	HostInfo             Code = 5000
	HostUnknownDirective Code = 5001
	HostMisplaced        Code = 5002
	HostMalformed        Code = 5003
	HostParseError       Code = 5004

	// Конфигурация
	CfgInfo        Code = 6000
	CfgUnknownLint Code = 6001
	CfgBadPolicy   Code = 6002
	CfgUnknownKey  Code = 6003
	CfgBadValue    Code = 6004

	IOLoadFileError Code = 7001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		LexInfo:               "Lexer information",
		LexEmptyPattern:       "Empty command pattern",
		LexIllegalChar:        "Illegal character in pattern",
		LexUnterminatedArg:    "Unterminated argument",
		LexEmptyName:          "Empty literal or argument name",
		LexUnterminatedAlias:  "Unterminated alias group",
		LexArgumentAlias:      "Arguments cannot have aliases",
		LexAliasNotAllowed:    "Alias not allowed at this position",
		LexMisplacedDelimiter: "Misplaced argument delimiter",
		TreeInfo:              "Namespace tree information",
		TreeKindMismatch:      "Literal/argument kind mismatch",
		TreeDuplicateAlias:    "Duplicate alias",
		BindInfo:              "Binder information",
		BindUnrecognized:      "Unrecognized binding",
		BindSlotTaken:         "Role already bound",
		BindUnresolvedParam:   "Unresolved handler parameter",
		BindLetUnresolved:     "Let target not found",
		BindUnusedTarget:      "Binding matches no argument",
		BindLetDuplicate:      "Parameter has several let targets",
		BindLetUnknownParam:   "Let names an unknown parameter",
		AnaInfo:               "Analyzer information",
		AnaMissingConverter:   "Argument without argument type",
		LintArgumentFirst:     "Command starts with an argument",
		LintDuplicateAlias:    "Duplicate alias among siblings",
		LintDuplicateCmd:      "Duplicate command",
		LintBindingPattern:    "Binding does not match role contract",
		LintLetTypeMismatch:   "Let parameter type mismatch",
		LintMethodSignature:   "Invalid handler signature",
		LintAccessibility:     "Bound element is not accessible",
		HostInfo:              "Host information",
		HostUnknownDirective:  "Unknown directive",
		HostMisplaced:         "Directive not allowed here",
		HostMalformed:         "Malformed directive",
		HostParseError:        "Source parse error",
		CfgInfo:               "Configuration information",
		CfgUnknownLint:        "Unknown lint pass",
		CfgBadPolicy:          "Unknown alias policy",
		CfgUnknownKey:         "Unknown configuration key",
		CfgBadValue:           "Invalid configuration value",
		IOLoadFileError:       "I/O load file error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TRE%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BND%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("ANA%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("HST%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
