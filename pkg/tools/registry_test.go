package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxhub/ctxhub/pkg/model"
)

func echoTool() Definition {
	return Definition{
		Name:        "echo",
		Description: "returns its message",
		Parameters: []Parameter{
			{Name: "message", Type: "string", Description: "text to echo", Required: true},
			{Name: "repeat", Type: "integer", Description: "times to repeat", Default: 1},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			n, err := intArg(params, "repeat")
			if err != nil {
				return nil, err
			}
			out := ""
			for i := int64(0); i < n; i++ {
				out += strArg(params, "message")
			}
			return out, nil
		},
	}
}

func TestRegister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool()))

	assert.NotNil(t, reg.Get("echo"))
	assert.Nil(t, reg.Get("nope"))
	assert.Equal(t, []string{"echo"}, reg.List())
}

func TestRegister_Duplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool()))
	assert.Error(t, reg.Register(echoTool()))
}

func TestRegister_InvalidDefinition(t *testing.T) {
	reg := NewRegistry()

	def := echoTool()
	def.Name = ""
	assert.Error(t, reg.Register(def))

	def = echoTool()
	def.Handler = nil
	assert.Error(t, reg.Register(def))

	def = echoTool()
	def.Parameters = []Parameter{{Name: "p", Type: "banana"}}
	assert.Error(t, reg.Register(def))
}

func TestExecute(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool()))

	res := reg.Execute(context.Background(), "echo", map[string]interface{}{
		"message": "hi",
	})
	require.True(t, res.Success)
	assert.Equal(t, "hi", res.Output) // default repeat applied
	assert.NotEmpty(t, res.Metadata["invocation_id"])
}

func TestExecute_UnknownTool(t *testing.T) {
	reg := NewRegistry()

	res := reg.Execute(context.Background(), "missing", nil)
	assert.False(t, res.Success)
	assert.True(t, res.Recoverable)
}

func TestExecute_SchemaRejectsBadArguments(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool()))

	// Missing required parameter.
	res := reg.Execute(context.Background(), "echo", map[string]interface{}{})
	assert.False(t, res.Success)
	assert.True(t, res.Recoverable)

	// Wrong type.
	res = reg.Execute(context.Background(), "echo", map[string]interface{}{
		"message": 42,
	})
	assert.False(t, res.Success)
	assert.True(t, res.Recoverable)

	// Unknown extra parameter.
	res = reg.Execute(context.Background(), "echo", map[string]interface{}{
		"message": "hi",
		"bogus":   true,
	})
	assert.False(t, res.Success)
	assert.True(t, res.Recoverable)
}

func TestExecute_ErrorClassification(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(Definition{
		Name:        "soft_fail",
		Description: "fails with a recoverable error",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return nil, model.ErrNotFound
		},
	}))
	require.NoError(t, reg.Register(Definition{
		Name:        "hard_fail",
		Description: "fails with a storage error",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return nil, errors.New("disk on fire")
		},
	}))

	res := reg.Execute(context.Background(), "soft_fail", nil)
	assert.False(t, res.Success)
	assert.True(t, res.Recoverable)

	res = reg.Execute(context.Background(), "hard_fail", nil)
	assert.False(t, res.Success)
	assert.False(t, res.Recoverable)
}
