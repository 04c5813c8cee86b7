package intercompany

import (
	"testing"

	"intercompany/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestMirrorMoveType_RoundTrip(t *testing.T) {
	for _, moveType := range []string{
		model.MoveTypeOutInvoice,
		model.MoveTypeInInvoice,
		model.MoveTypeOutRefund,
		model.MoveTypeInRefund,
	} {
		mirrored, ok := MirrorMoveType(moveType)
		assert.True(t, ok, moveType)
		assert.NotEqual(t, moveType, mirrored)

		back, ok := MirrorMoveType(mirrored)
		assert.True(t, ok, mirrored)
		assert.Equal(t, moveType, back)
	}
}

func TestMirrorJournalType(t *testing.T) {
	tests := map[string]string{
		model.MoveTypeOutInvoice: model.JournalTypePurchase,
		model.MoveTypeOutRefund:  model.JournalTypePurchase,
		model.MoveTypeInInvoice:  model.JournalTypeSale,
		model.MoveTypeInRefund:   model.JournalTypeSale,
	}
	for moveType, want := range tests {
		got, ok := MirrorJournalType(moveType)
		assert.True(t, ok)
		assert.Equal(t, want, got, moveType)
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(model.MoveTypeOutRefund))
	assert.False(t, Supported(model.MoveTypeEntry))
	assert.False(t, Supported(""))

	_, ok := MirrorMoveType(model.MoveTypeEntry)
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	err := newError("BuildMirror", KindVisibility, ErrProductNotShared, "product %q hidden", "Tool")

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindVisibility, kind)
	assert.ErrorIs(t, err, ErrProductNotShared)
	assert.Equal(t, `product "Tool" hidden`, err.Error())

	_, ok = KindOf(ErrProductNotShared)
	assert.False(t, ok)

	bare := &Error{Op: "CheckWrite", Kind: KindConsistency, Err: ErrAmountDesync}
	assert.Contains(t, bare.Error(), "CheckWrite")
}
