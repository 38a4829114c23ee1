package microservice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterDefaultsCurrent(t *testing.T) {
	r := NewRegistry()
	r.Register(Parameter{Name: "threshold", Type: ParamFloat, Default: "10", Editable: true}, nil)

	p, ok := r.Get("threshold")
	require.True(t, ok)
	assert.Equal(t, "10", p.Current)
}

func TestRegistryUpdateRejectsUnknownParameter(t *testing.T) {
	r := NewRegistry()
	err := r.Update("missing", "1")
	assert.Error(t, err)
}

func TestRegistryUpdateRejectsNonEditable(t *testing.T) {
	r := NewRegistry()
	r.Register(Parameter{Name: "fixed", Type: ParamString, Default: "x", Editable: false}, nil)

	err := r.Update("fixed", "y")
	assert.Error(t, err)

	p, _ := r.Get("fixed")
	assert.Equal(t, "x", p.Current)
}

func TestRegistryUpdateValidatesType(t *testing.T) {
	r := NewRegistry()
	r.Register(Parameter{Name: "n", Type: ParamInt, Default: "1", Editable: true}, nil)

	assert.Error(t, r.Update("n", "not-an-int"))
	assert.NoError(t, r.Update("n", "42"))

	p, _ := r.Get("n")
	assert.Equal(t, "42", p.Current)
}

func TestRegistryUpdateInvokesUpdater(t *testing.T) {
	r := NewRegistry()
	var seen string
	r.Register(Parameter{Name: "n", Type: ParamString, Default: "a", Editable: true}, func(value string) error {
		seen = value
		return nil
	})

	require.NoError(t, r.Update("n", "b"))
	assert.Equal(t, "b", seen)

	p, _ := r.Get("n")
	assert.Equal(t, "b", p.Current)
}

func TestRegistryUpdateLeavesCurrentWhenUpdaterRejects(t *testing.T) {
	r := NewRegistry()
	r.Register(Parameter{Name: "n", Type: ParamString, Default: "a", Editable: true}, func(value string) error {
		return errors.New("rejected")
	})

	err := r.Update("n", "b")
	assert.Error(t, err)

	p, _ := r.Get("n")
	assert.Equal(t, "a", p.Current)
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register(Parameter{Name: "a", Type: ParamString, Default: "1"}, nil)
	r.Register(Parameter{Name: "b", Type: ParamString, Default: "2"}, nil)

	assert.Len(t, r.List(), 2)
}
