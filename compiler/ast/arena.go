package ast

import "unsafe"

// arenaBytes is the backing-store size for the whole-program node arena.
const arenaBytes = 4 << 20

// poolCount is the number of distinct node pools below; arenaBytes is split
// evenly across them so the combined reservation matches the reference
// budget.
const poolCount = 10

// pool is a bump allocator for one node type: it pre-reserves capacity so
// that, within budget, append never reallocates and every handed-out
// pointer stays valid for the arena's whole lifetime. A program large
// enough to exceed its pool's reserved capacity still compiles correctly:
// alloc spills to an individually heap-allocated node.
type pool[T any] struct {
	items []T
}

func newPool[T any](budgetBytes int) *pool[T] {
	var zero T

	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		size = 1
	}

	n := budgetBytes / size
	if n < 16 {
		n = 16
	}

	return &pool[T]{items: make([]T, 0, n)}
}

func (p *pool[T]) alloc(v T) *T {
	if len(p.items) == cap(p.items) {
		node := new(T)
		*node = v

		return node
	}

	p.items = append(p.items, v)

	return &p.items[len(p.items)-1]
}

// Arena is the stable backing storage for one compilation's AST nodes. It
// is created at parser construction and dropped, as a whole, once codegen
// has consumed the Program it describes — no node is freed individually.
type Arena struct {
	numbers     *pool[NumberTerm]
	identifiers *pool[IdentifierTerm]
	parens      *pool[ParenthesizedTerm]
	binaryOps   *pool[BinaryOp]

	exitStmts   *pool[ExitStmt]
	letStmts    *pool[LetStmt]
	assignStmts *pool[AssignStmt]
	scopeStmts  *pool[ScopeStmt]
	ifStmts     *pool[IfStmt]
	elseStmts   *pool[ElseStmt]
}

func NewArena() *Arena {
	share := arenaBytes / poolCount

	return &Arena{
		numbers:     newPool[NumberTerm](share),
		identifiers: newPool[IdentifierTerm](share),
		parens:      newPool[ParenthesizedTerm](share),
		binaryOps:   newPool[BinaryOp](share),
		exitStmts:   newPool[ExitStmt](share),
		letStmts:    newPool[LetStmt](share),
		assignStmts: newPool[AssignStmt](share),
		scopeStmts:  newPool[ScopeStmt](share),
		ifStmts:     newPool[IfStmt](share),
		elseStmts:   newPool[ElseStmt](share),
	}
}

func (a *Arena) NewNumberTerm(v NumberTerm) *NumberTerm             { return a.numbers.alloc(v) }
func (a *Arena) NewIdentifierTerm(v IdentifierTerm) *IdentifierTerm { return a.identifiers.alloc(v) }
func (a *Arena) NewParenthesizedTerm(v ParenthesizedTerm) *ParenthesizedTerm {
	return a.parens.alloc(v)
}
func (a *Arena) NewBinaryOp(v BinaryOp) *BinaryOp { return a.binaryOps.alloc(v) }

func (a *Arena) NewExitStmt(v ExitStmt) *ExitStmt       { return a.exitStmts.alloc(v) }
func (a *Arena) NewLetStmt(v LetStmt) *LetStmt          { return a.letStmts.alloc(v) }
func (a *Arena) NewAssignStmt(v AssignStmt) *AssignStmt { return a.assignStmts.alloc(v) }
func (a *Arena) NewScopeStmt(v ScopeStmt) *ScopeStmt    { return a.scopeStmts.alloc(v) }
func (a *Arena) NewIfStmt(v IfStmt) *IfStmt             { return a.ifStmts.alloc(v) }
func (a *Arena) NewElseStmt(v ElseStmt) *ElseStmt       { return a.elseStmts.alloc(v) }
