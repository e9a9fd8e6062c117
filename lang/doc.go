// Package lang implements the expression language embedded in bindable
// templates: its parser, its expression AST, an evaluator, and the splitter
// that finds expressions inside template text.
//
// # Expressions
//
// An expression is a chain of steps separated by dots. Each step reads a
// name or calls it with arguments, and every step after the first operates
// on the previous result:
//
//	user.name              // read "user" from the store, then its "name"
//	@add(1, count)         // call the store function "add"
//	items.length           // length of a string, slice, or array
//	#env.HOME              // read from the external table
//	list.@join(", ", tags) // "@" switches back to the store mid-chain
//
// A step's sigil selects where its name is looked up:
//
//	@      the store (values for reads, functions for calls)
//	#      the external table set with [WithExternal]
//
// A step without a sigil reads from the previous result, except the first
// step, which defaults to the store.
//
// Arguments are literals or nested expressions. Literals are null,
// undefined, booleans, numbers (decimal, 0x hex, 0o octal, 0b binary),
// strings in double, single, or back-tick quotes, /regex/flags, [arrays],
// and {key: value} objects. Whitespace, /* block */ and // line comments may
// appear around any value.
//
// # Grammar
//
// Informal PEG; alternatives are tried in order:
//
//	Exp      ← _ Item ('.' Item)* _
//	Item     ← ('#' / '@')? Iden ('(' List? ','? ')')?
//	Value    ← '(' Value ')' / _ Primary _
//	Primary  ← null / undefined / true / false / Number / String / Regex
//	         / Exp / Object / Array
//	List     ← Value (',' Value)*
//	Object   ← '{' (KeyVal (',' KeyVal)*)? ','? '}'
//	KeyVal   ← (String / Iden ('.' Iden)*) ':' Value
//	Array    ← '[' List? ','? ']'
//
// Syntax errors report the farthest position reached and everything that
// would have been accepted there:
//
//	Expected "(", ".", or end of input but "!" found.
//
// # Dependencies
//
// [NewExpression] records which store names an expression reads: the name
// of its first step when that step targets the store, plus the dependencies
// of every expression passed as an argument. A reactive caller re-evaluates
// an expression only when a [Change] names one of them.
//
// # Evaluation
//
// [Expression.Evaluate] never fails. A missing function, an error or panic
// from a call, or a rejected [Deferred] value ends the chain with
// [Undefined]. Pass [WithLogger] with a logger at trace level to see every
// step.
//
// # Templates
//
// [Split] finds {{ expression }} segments in text. A backslash before {{
// makes it literal, and a segment that does not parse stays literal text.
package lang
