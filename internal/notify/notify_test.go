package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderDrain(t *testing.T) {
	var r Recorder

	assert.Equal(t, []Notice{}, r.Drain())

	r.Notify(Info("Ingredient added", "Egg has been added to your pantry."))
	r.Notify(Failure("Error", "boom"))

	got := r.Drain()
	assert.Len(t, got, 2)
	assert.Equal(t, VariantDefault, got[0].Variant)
	assert.Equal(t, VariantDestructive, got[1].Variant)
	assert.Empty(t, r.Drain())
}

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, &b, Discard{}, Log{}}

	m.Notify(Info("Hello", ""))

	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1)
}

func TestContextNotifier(t *testing.T) {
	var r Recorder
	ctx := WithNotifier(context.Background(), &r)

	FromContext(ctx).Notify(Info("Hello", ""))
	FromContext(context.Background()).Notify(Info("Dropped", ""))

	got := r.Drain()
	assert.Len(t, got, 1)
	assert.Equal(t, "Hello", got[0].Title)
}
