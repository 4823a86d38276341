package functions

// EntryKind classifies a palette entry.
type EntryKind string

const (
	EntryFunction EntryKind = "function"
	EntryOperator EntryKind = "operator"
	EntryGrouping EntryKind = "grouping"
)

// Operator describes one operator symbol accepted by the parser.
type Operator struct {
	Symbol      string
	Kind        EntryKind
	Description string
}

// Operators lists every operator and grouping symbol a formula may contain,
// in palette order. The parser's token table must accept each Symbol as a
// single token; tests in the parser package enforce this.
var Operators = []Operator{
	{Symbol: "+", Kind: EntryOperator, Description: "Addition"},
	{Symbol: "-", Kind: EntryOperator, Description: "Subtraction or negation"},
	{Symbol: "*", Kind: EntryOperator, Description: "Multiplication"},
	{Symbol: "/", Kind: EntryOperator, Description: "Division"},
	{Symbol: "(", Kind: EntryGrouping, Description: "Open group"},
	{Symbol: ")", Kind: EntryGrouping, Description: "Close group"},
	{Symbol: "==", Kind: EntryOperator, Description: "Equal"},
	{Symbol: "!=", Kind: EntryOperator, Description: "Not equal"},
	{Symbol: "<", Kind: EntryOperator, Description: "Less than"},
	{Symbol: ">", Kind: EntryOperator, Description: "Greater than"},
	{Symbol: "<=", Kind: EntryOperator, Description: "Less than or equal"},
	{Symbol: ">=", Kind: EntryOperator, Description: "Greater than or equal"},
	{Symbol: "&&", Kind: EntryOperator, Description: "Logical and"},
	{Symbol: "||", Kind: EntryOperator, Description: "Logical or"},
	{Symbol: "!", Kind: EntryOperator, Description: "Logical not"},
}

// PaletteEntry is one insertable item of an operator palette.
type PaletteEntry struct {
	Label       string    `json:"label" yaml:"label"`
	Insert      string    `json:"insert" yaml:"insert"`
	Kind        EntryKind `json:"kind" yaml:"kind"`
	Description string    `json:"description" yaml:"description"`
}

// Palette returns the insertable items for a formula editor: every built-in
// function followed by every operator. It is generated from the registry so
// the editor can not offer anything the engine does not support.
func Palette() []PaletteEntry {
	entries := make([]PaletteEntry, 0, len(declared)+len(Operators))
	for _, b := range declared {
		entries = append(entries, PaletteEntry{
			Label:       b.Name + "()",
			Insert:      b.Name + "()",
			Kind:        EntryFunction,
			Description: b.Description,
		})
	}
	for _, op := range Operators {
		entries = append(entries, PaletteEntry{
			Label:       op.Symbol,
			Insert:      op.Symbol,
			Kind:        op.Kind,
			Description: op.Description,
		})
	}
	return entries
}
