package ledger

import "errors"

var (
	// ErrInvalidState is returned when a transition is not allowed from the document's current state.
	ErrInvalidState = errors.New("invalid document state")

	// ErrEmptyInvoice is returned when posting a document without any product line.
	ErrEmptyInvoice = errors.New("document has no product line")

	// ErrMissingJournal is returned when no journal of the required type exists in the company.
	ErrMissingJournal = errors.New("no matching journal")

	// ErrUnsupportedMoveType is returned for an unknown move type.
	ErrUnsupportedMoveType = errors.New("unsupported move type")

	// ErrMissingCompany is returned when a document is derived without an owning company.
	ErrMissingCompany = errors.New("document has no company")
)
