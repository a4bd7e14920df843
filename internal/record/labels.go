package record

// Label index conventions for Record.Labels, per control-flow node kind
// (spec.md §4.4.5). Sema writes these in this order on first visit;
// Codegen reads them back by the same indices.
const (
	IfFalse = 0
	IfEnd   = 1

	TernaryFalse = 0
	TernaryEnd   = 1

	WhileStart = 0
	WhileEnd   = 1

	DoWhileStart = 0
	DoWhileNext  = 1
	DoWhileEnd   = 2

	ForStart = 0
	ForNext  = 1
	ForEnd   = 2

	SwitchEnd = 0

	// Case, Default, Label, and Goto's target each own exactly one label
	// at index 0.
	Single = 0
)
