package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekolang/ekoc/compiler/token"
)

func TestArenaPointerStability(t *testing.T) {
	a := NewArena()

	n1 := a.NewNumberTerm(NumberTerm{Token: token.Token{Kind: token.NUMBER, Value: "1"}})
	n2 := a.NewNumberTerm(NumberTerm{Token: token.Token{Kind: token.NUMBER, Value: "2"}})

	// allocating a second node must not move or invalidate the first.
	assert.Equal(t, "1", n1.Token.Value)
	assert.Equal(t, "2", n2.Token.Value)
	assert.NotSame(t, n1, n2)
}

func TestArenaSurvivesBudgetOverflow(t *testing.T) {
	a := NewArena()

	cap0 := cap(a.numbers.items)

	nodes := make([]*NumberTerm, 0, cap0+8)
	for i := 0; i < cap0+8; i++ {
		nodes = append(nodes, a.NewNumberTerm(NumberTerm{Token: token.Token{Kind: token.NUMBER, Value: "x"}}))
	}

	require.Len(t, nodes, cap0+8)

	// every handed-out pointer, in-pool or heap-spilled past the budget,
	// stays distinct and independently addressable.
	seen := make(map[*NumberTerm]struct{}, len(nodes))
	for _, n := range nodes {
		_, dup := seen[n]
		assert.False(t, dup)
		seen[n] = struct{}{}
	}
}

func TestArenaDistinctNodeKindsDoNotAlias(t *testing.T) {
	a := NewArena()

	num := a.NewNumberTerm(NumberTerm{Token: token.Token{Kind: token.NUMBER, Value: "7"}})
	ident := a.NewIdentifierTerm(IdentifierTerm{Token: token.Token{Kind: token.IDENTIFIER, Value: "x"}})
	bin := a.NewBinaryOp(BinaryOp{Op: token.PLUS, Left: num, Right: ident})

	assert.Equal(t, token.PLUS, bin.Op)
	assert.Same(t, num, bin.Left)
	assert.Same(t, ident, bin.Right)
}
