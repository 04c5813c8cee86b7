package intercompany

import "intercompany/internal/model"

var mirrorMoveTypes = map[string]string{
	model.MoveTypeOutInvoice: model.MoveTypeInInvoice,
	model.MoveTypeInInvoice:  model.MoveTypeOutInvoice,
	model.MoveTypeOutRefund:  model.MoveTypeInRefund,
	model.MoveTypeInRefund:   model.MoveTypeOutRefund,
}

var mirrorJournalTypes = map[string]string{
	model.MoveTypeOutInvoice: model.JournalTypePurchase,
	model.MoveTypeOutRefund:  model.JournalTypePurchase,
	model.MoveTypeInInvoice:  model.JournalTypeSale,
	model.MoveTypeInRefund:   model.JournalTypeSale,
}

// Supported reports whether documents of moveType can be mirrored.
func Supported(moveType string) bool {
	_, ok := mirrorMoveTypes[moveType]
	return ok
}

// MirrorMoveType returns the move type of the counterpart document.
func MirrorMoveType(moveType string) (string, bool) {
	t, ok := mirrorMoveTypes[moveType]
	return t, ok
}

// MirrorJournalType returns the journal type the counterpart document is booked in.
func MirrorJournalType(moveType string) (string, bool) {
	t, ok := mirrorJournalTypes[moveType]
	return t, ok
}
