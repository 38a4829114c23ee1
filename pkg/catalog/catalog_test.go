package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

func fakeDescriptor(serviceType string) manifest.ServiceDescriptor {
	return manifest.ServiceDescriptor{
		Blueprint:  manifest.ServiceBlueprint{ServiceType: serviceType},
		Version:    "0.1.0",
		BinaryPath: "/tmp/" + serviceType,
	}
}

func TestCatalogRegisterAndGet(t *testing.T) {
	cat := New()

	_, ok := cat.Get("strategy")
	assert.False(t, ok)

	cat.Register(fakeDescriptor("strategy"))

	got, ok := cat.Get("strategy")
	assert.True(t, ok)
	assert.Equal(t, "strategy", got.Blueprint.ServiceType)
	assert.Equal(t, "/tmp/strategy", got.BinaryPath)
}

func TestCatalogRegisterReplacesExisting(t *testing.T) {
	cat := New()
	cat.Register(fakeDescriptor("strategy"))

	updated := fakeDescriptor("strategy")
	updated.Version = "0.2.0"
	cat.Register(updated)

	got, ok := cat.Get("strategy")
	assert.True(t, ok)
	assert.Equal(t, "0.2.0", got.Version)
}

func TestCatalogUnregister(t *testing.T) {
	cat := New()
	cat.Register(fakeDescriptor("strategy"))
	cat.Unregister("strategy")

	_, ok := cat.Get("strategy")
	assert.False(t, ok)
}

func TestCatalogList(t *testing.T) {
	cat := New()
	cat.Register(fakeDescriptor("strategy"))
	cat.Register(fakeDescriptor("broker"))

	list := cat.List()
	assert.Len(t, list, 2)
}
