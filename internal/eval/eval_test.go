package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlbgo/tlb/internal/eval"
)

func TestEvalLiteral(t *testing.T) {
	v, err := eval.Eval(eval.Lit{Value: 42}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestEvalVariable(t *testing.T) {
	env := eval.Env{"n": 7}
	v, err := eval.Eval(eval.Var{Name: "n"}, env)
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestEvalUnknownVariable(t *testing.T) {
	_, err := eval.Eval(eval.Var{Name: "missing"}, eval.Env{})
	require.Error(t, err)
}

func TestEvalArithmetic(t *testing.T) {
	// (n + m) * 2 / 4, truncated toward zero
	expr := eval.Binary{
		Op: eval.Div,
		Left: eval.Binary{
			Op: eval.Mul,
			Left: eval.Binary{
				Op:    eval.Add,
				Left:  eval.Var{Name: "n"},
				Right: eval.Var{Name: "m"},
			},
			Right: eval.Lit{Value: 2},
		},
		Right: eval.Lit{Value: 4},
	}
	v, err := eval.Eval(expr, eval.Env{"n": 3, "m": -1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := eval.Eval(eval.Binary{Op: eval.Div, Left: eval.Lit{Value: 1}, Right: eval.Lit{Value: 0}}, eval.Env{})
	require.Error(t, err)
}

func TestEvalComparisons(t *testing.T) {
	cases := []struct {
		op   eval.Op
		want int64
	}{
		{eval.Eq, 1},
		{eval.Ne, 0},
		{eval.Lt, 0},
		{eval.Le, 1},
		{eval.Gt, 0},
		{eval.Ge, 1},
	}
	for _, c := range cases {
		v, err := eval.Eval(eval.Binary{Op: c.op, Left: eval.Lit{Value: 5}, Right: eval.Lit{Value: 5}}, eval.Env{})
		require.NoError(t, err)
		assert.EqualValues(t, c.want, v)
	}
}
