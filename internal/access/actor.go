// Package access carries the acting identity through a request and enforces
// company visibility on every gorm query issued on its behalf.
package access

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the capability a component acts under. A non-elevated actor sees
// only rows of its companies plus shared (company-less) rows.
type Actor struct {
	UserID     *uuid.UUID
	CompanyIDs []uuid.UUID
	Elevated   bool
}

// System returns an elevated actor not bound to any user.
func System() Actor {
	return Actor{Elevated: true}
}

// ForUser returns a scoped actor for the given user and companies.
func ForUser(userID uuid.UUID, companyIDs ...uuid.UUID) Actor {
	id := userID
	return Actor{UserID: &id, CompanyIDs: append([]uuid.UUID(nil), companyIDs...)}
}

// Sudo returns a copy of the actor with visibility restrictions lifted.
// The user identity is kept for authorship.
func (a Actor) Sudo() Actor {
	a.CompanyIDs = append([]uuid.UUID(nil), a.CompanyIDs...)
	a.Elevated = true
	return a
}

// WithCompany returns a copy of the actor that may also see the given company.
func (a Actor) WithCompany(companyID uuid.UUID) Actor {
	ids := append([]uuid.UUID(nil), a.CompanyIDs...)
	if !a.Allows(companyID) {
		ids = append(ids, companyID)
	}
	a.CompanyIDs = ids
	return a
}

// Allows reports whether a row owned by companyID is visible to the actor.
func (a Actor) Allows(companyID uuid.UUID) bool {
	if a.Elevated {
		return true
	}
	for _, id := range a.CompanyIDs {
		if id == companyID {
			return true
		}
	}
	return false
}

// AllowsShared is Allows for nullable company references; nil means shared.
func (a Actor) AllowsShared(companyID *uuid.UUID) bool {
	return companyID == nil || a.Allows(*companyID)
}

type contextKey string

const actorKey contextKey = "access_actor"

// Into stores the actor in ctx. Storage layers read it back with From.
func Into(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// From returns the actor stored in ctx, if any.
func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
