package models

// AttributeKind tags the variant held by an AttributeValue.
type AttributeKind int

const (
	AttributeString AttributeKind = iota
	AttributeNumber
	AttributeBool
	AttributeStringArray
	AttributeText
)

// Limits enforced at ingest per spec §4.1: exceeding any of these produces a
// FeatureError with ReasonOverflow.
const (
	MaxAttributeStringLen = 10000
	MaxAttributeArrayLen  = 1000
	MaxAttributeNesting   = 3
)

// AttributeValue is a tagged variant over the scalar/array attribute types an
// entity may carry. Nested maps (up to MaxAttributeNesting levels) are
// represented as map[string]AttributeValue at the call site, not by this type
// itself, to keep the variant flat.
type AttributeValue struct {
	Kind        AttributeKind
	Str         string
	Num         float64
	Bool        bool
	StrArray    []string
	NestedLevel int
}

func StringAttr(v string) AttributeValue       { return AttributeValue{Kind: AttributeString, Str: v} }
func NumberAttr(v float64) AttributeValue      { return AttributeValue{Kind: AttributeNumber, Num: v} }
func BoolAttr(v bool) AttributeValue           { return AttributeValue{Kind: AttributeBool, Bool: v} }
func StringArrayAttr(v []string) AttributeValue {
	return AttributeValue{Kind: AttributeStringArray, StrArray: v}
}
func TextAttr(v string) AttributeValue { return AttributeValue{Kind: AttributeText, Str: v} }

// AttributeMap is the schemaless bag of attributes carried by an Entity.
type AttributeMap map[string]AttributeValue
