package realtime

import (
	"context"
	"errors"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/domain"
)

// Connection rejection messages. These are part of the client contract and
// are delivered verbatim in connect_error frames.
const (
	MsgAuthRequired    = "Authentication required"
	MsgInvalidToken    = "Invalid token"
	MsgInvalidPurpose  = "Invalid token purpose"
	MsgUserNotFound    = "User not found"
	MsgTokenRevoked    = "Token revoked"
	MsgPrivateOnly     = "Namespace is for private users only"
	MsgInternalFailure = "Authentication failed"
)

// GateError is a connection rejection with its client-facing message.
type GateError struct {
	Message string
}

func (e *GateError) Error() string {
	return e.Message
}

func reject(message string) *GateError {
	return &GateError{Message: message}
}

// Gate authenticates websocket connection attempts. One gate instance
// serves both endpoints; the private flag selects the stricter checks.
type Gate struct {
	issuer   *auth.TokenIssuer
	resolver *auth.Resolver
}

// NewGate creates a connection gate.
func NewGate(issuer *auth.TokenIssuer, resolver *auth.Resolver) *Gate {
	return &Gate{issuer: issuer, resolver: resolver}
}

// Authenticate runs the full guard chain for one connection attempt:
// extract, verify (purpose socket), type check for the private endpoint,
// resolve, and an explicit snapshot re-check. Returns the attached identity
// or a GateError carrying the exact client-facing message.
func (g *Gate) Authenticate(ctx context.Context, hs auth.Handshake, private bool) (*domain.Identity, *GateError) {
	token, ok := auth.FromHandshake(hs)
	if !ok {
		return nil, reject(MsgAuthRequired)
	}

	claims, err := g.issuer.Verify(token)
	if err != nil {
		return nil, reject(MsgInvalidToken)
	}
	if claims.Purpose != auth.PurposeSocket {
		return nil, reject(MsgInvalidPurpose)
	}

	// the private endpoint never touches the database for public tokens
	if private && claims.Type != domain.UserTypePrivate {
		return nil, reject(MsgPrivateOnly)
	}

	identity, err := g.resolver.Resolve(ctx, claims, auth.PurposeSocket)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return nil, reject(MsgUserNotFound)
		case errors.Is(err, auth.ErrBadType):
			return nil, reject(MsgInvalidToken)
		default:
			return nil, reject(MsgInternalFailure)
		}
	}

	// the resolver matched on the snapshot, but the contract makes revocation
	// explicit: a stale snapshot is reported as revoked, not missing
	if identity.UpdatedAt.UnixMilli() != claims.UpdatedAt {
		return nil, reject(MsgTokenRevoked)
	}

	return identity, nil
}
