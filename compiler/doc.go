/*

Process of compilation

Eko Source Text ->
	lex ->
Token Stream ->
	parse ->
Abstract Syntax Tree (ast, backed by an Arena) ->
	generate ->
NASM Assembly Text ->
	nasm -felf64 ->
Binary Object ->
	ld ->
Binary Executable (ELF64, entry _start)

*/
package compiler
