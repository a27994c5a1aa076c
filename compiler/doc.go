/*

Process of compilation

Trace Script Text ->
	parse ->
Abstract Syntax Tree (ast) ->
	build ->
Trace IR (ir), folded and CSEd while emitted (opt) ->
	dce (opt) ->
Trace IR ->
	format ->
IR Dump

*/
package compiler
