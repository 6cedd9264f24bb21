package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrosnet/libfirm/compiler/back/arm"
)

const input = `
target: {variant: v5, fpu: fpa}
functions:
  - name: mla
    params: [i32, i32, i32]
    results: [i32]
    nodes:
      - {name: a, op: Proj, mode: Is, in: [args], num: 0}
      - {name: b, op: Proj, mode: Is, in: [args], num: 1}
      - {name: c, op: Proj, mode: Is, in: [args], num: 2}
      - {name: m, op: Mul, mode: Is, in: [a, b]}
      - {name: s, op: Add, mode: Is, in: [m, c]}
      - {name: ret, op: Return, in: [mem, s]}
`

func TestCompile(t *testing.T) {
	ctx := context.Background()

	obj, err := Compile(ctx, "mla.yaml", []byte(input), Options{})
	require.NoError(t, err)
	assert.Contains(t, string(obj), "func mla(i32, i32, i32) i32 {")
	assert.Contains(t, string(obj), "arm_Mla_v5")

	obj, err = Compile(ctx, "mla.yaml", []byte(input), Options{Variant: "v7", Layout: true})
	require.NoError(t, err)
	assert.Regexp(t, `arm_Mla\d+:Iu`, string(obj))
	assert.NotContains(t, string(obj), "arm_Mla_v5")
	assert.Contains(t, string(obj), "arm_between_type")

	_, err = Compile(ctx, "mla.yaml", []byte(input), Options{FPU: "vfp"})
	assert.ErrorIs(t, err, arm.ErrUnknownTarget)
}

func TestDAGs(t *testing.T) {
	b, err := DAGs(context.Background(), "mla.yaml", []byte(input))
	require.NoError(t, err)
	assert.Contains(t, string(b), "func mla: 0 dags\n")

	b, err = Dump(context.Background(), "mla.yaml", []byte(input))
	require.NoError(t, err)
	assert.Contains(t, string(b), "Mul")
	assert.Contains(t, string(b), "# mla.yaml:")
}
