package memo

import (
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActorKind distinguishes human principals from automated ones
type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorSystem ActorKind = "system"
)

// Actor is the principal behind a ledger write. Every content-affecting
// call receives one explicitly; the ledger never resolves identity on
// its own.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Kind ActorKind `json:"kind"`
}

// Validate checks the actor carries an identity
func (a Actor) Validate() error {
	if a.ID == uuid.Nil {
		return shared.NewValidationError("actor", "Actor identity is required")
	}
	if a.Kind != ActorUser && a.Kind != ActorSystem {
		return shared.NewValidationError("actor", "Unknown actor kind")
	}
	return nil
}

// SystemActor returns the fixed principal for automated pipeline writes
func SystemActor(name string) Actor {
	return Actor{
		ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte("system/"+name)),
		Name: name,
		Kind: ActorSystem,
	}
}
