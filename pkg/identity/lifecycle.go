package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clearsite/clearsite/pkg/audit"
	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/authz"
)

// recordIDLength is the number of UUID characters kept in record ids.
// Example: "idn_" + uuid.New().String()[:recordIDLength] -> "idn_ab12cd34"
const recordIDLength = 8

// Service orchestrates identity lifecycle operations. Each call is a
// short-lived transaction: resolve the acting principal, consult the
// permission matrix, then touch the directory and/or store in order.
// The directory and store are independent systems; cross-store
// consistency is kept by an explicit compensating action, not by an
// assumed distributed transaction.
type Service struct {
	resolver *authority.Resolver
	store    Store
	oracle   CredentialOracle
	audit    *audit.Emitter
	logger   *slog.Logger
}

// NewService wires the lifecycle service.
func NewService(resolver *authority.Resolver, store Store, oracle CredentialOracle, emitter *audit.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		store:    store,
		oracle:   oracle,
		audit:    emitter,
		logger:   logger,
	}
}

// CreateParams carries the inputs for CreateIdentity. Secret material
// passes through to the directory and is never stored here.
type CreateParams struct {
	ContactHandle string
	Secret        string
	DisplayName   string
	Tier          authority.Tier
}

// ResolveCurrentPrincipal resolves the acting principal for the given
// evidence. Read-only; used by any caller needing "who am I".
func (s *Service) ResolveCurrentPrincipal(ctx context.Context, ev authority.Evidence) authority.Principal {
	return s.resolver.Resolve(ctx, ev)
}

// CreateIdentity creates the credential and the identity record as one
// logical step. If the record insert fails after the credential was
// created, the credential is deleted again (best effort); a failed
// compensation escalates to partial_failure for manual reconciliation.
func (s *Service) CreateIdentity(ctx context.Context, ev authority.Evidence, p CreateParams) (*Record, error) {
	acting := s.resolver.Resolve(ctx, ev)

	if !authz.IsAllowed(acting.Tier, p.Tier, authz.OpCreateIdentity) {
		s.emitDenied(acting, authz.OpCreateIdentity, p.ContactHandle, p.Tier)
		return nil, ErrUnauthorized("create an identity with tier " + p.Tier.String())
	}

	if p.Secret == "" {
		return nil, ErrInvalid("contact handle and secret are required")
	}

	// Validate the record shape before touching the directory; failing
	// here leaves no side effects at all.
	rec := &Record{
		ID:            "idn_" + uuid.New().String()[:recordIDLength],
		ContactHandle: p.ContactHandle,
		Tier:          p.Tier,
		DisplayName:   p.DisplayName,
		CreatedAt:     time.Now(),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	// Pre-check the handle so an obvious conflict never creates a
	// credential that immediately has to be compensated away. The store's
	// unique constraint remains the authority for the racing case.
	if existing, err := s.store.FindByHandle(p.ContactHandle); err != nil {
		s.logger.Warn("handle pre-check failed, deferring to insert", "handle", p.ContactHandle, "error", err)
	} else if existing != nil {
		return nil, ErrInvalid("contact handle " + p.ContactHandle + " is already registered")
	}

	credID, err := s.oracle.CreateCredential(ctx, p.ContactHandle, p.Secret)
	if err != nil {
		s.logger.Error("credential creation failed", "handle", p.ContactHandle, "error", err)
		return nil, ErrCredentialCreateFailed()
	}

	// Re-key the record by the directory's credential id so that a
	// verified session subject maps straight onto its record. Falls back
	// to the minted id when the directory does not report one.
	if credID != "" {
		rec.ID = credID
	}

	if err := s.store.Insert(rec); err != nil {
		s.logger.Error("record insert failed, compensating", "handle", p.ContactHandle, "error", err)
		if delErr := s.oracle.DeleteCredential(ctx, credID); delErr != nil {
			// The credential now exists with no record. Surface it; a
			// silent swallow would leave it valid but unreachable.
			s.logger.Error("compensating credential delete failed", "credential", credID, "error", delErr)
			s.emitPartialFailure(acting, credID, "credential orphaned after record insert failure")
			return nil, ErrPartialFailure("credential created but record insert and cleanup both failed")
		}
		if errors.Is(err, ErrDuplicateHandle) {
			return nil, ErrInvalid("contact handle " + p.ContactHandle + " is already registered")
		}
		return nil, ErrRecordCreateFailed()
	}

	s.emit(audit.EventIdentityCreate, acting, rec.ID, "allow", map[string]string{
		"handle": rec.ContactHandle,
		"tier":   rec.Tier.String(),
	})
	return rec, nil
}

// DeleteIdentity removes an identity. The credential delete at the
// directory is the commit point; the store row is removed afterwards so
// the two stores cannot diverge long-term.
func (s *Service) DeleteIdentity(ctx context.Context, ev authority.Evidence, targetID string, targetTier authority.Tier) error {
	acting := s.resolver.Resolve(ctx, ev)

	if !authz.IsAllowed(acting.Tier, targetTier, authz.OpDeleteIdentity) {
		s.emitDenied(acting, authz.OpDeleteIdentity, targetID, targetTier)
		return ErrUnauthorized("delete an identity with tier " + targetTier.String())
	}

	if err := s.oracle.DeleteCredential(ctx, targetID); err != nil {
		s.logger.Error("credential deletion failed", "target", targetID, "error", err)
		return ErrCredentialDeleteFailed()
	}

	if err := s.store.Delete(targetID); err != nil {
		// Credential is gone but the row remains; the record is inert
		// (no credential can authenticate as it) but must be reconciled.
		s.logger.Error("record delete failed after credential delete", "target", targetID, "error", err)
		s.emitPartialFailure(acting, targetID, "record orphaned after credential delete")
		return ErrPartialFailure("credential deleted but record removal failed")
	}

	s.emit(audit.EventIdentityDelete, acting, targetID, "allow", map[string]string{
		"tier": targetTier.String(),
	})
	return nil
}

// RotateCredential replaces the secret for an identity. No store
// mutation: the record's non-secret attributes are unaffected.
func (s *Service) RotateCredential(ctx context.Context, ev authority.Evidence, targetID string, targetTier authority.Tier, newSecret string) error {
	acting := s.resolver.Resolve(ctx, ev)

	if !authz.IsAllowed(acting.Tier, targetTier, authz.OpRotateCredential) {
		s.emitDenied(acting, authz.OpRotateCredential, targetID, targetTier)
		return ErrUnauthorized("rotate a credential for tier " + targetTier.String())
	}

	if newSecret == "" {
		return ErrInvalid("new secret is required")
	}

	if err := s.oracle.UpdateSecret(ctx, targetID, newSecret); err != nil {
		s.logger.Error("credential rotation failed", "target", targetID, "error", err)
		return ErrCredentialRotateFailed()
	}

	s.emit(audit.EventCredentialRotate, acting, targetID, "allow", map[string]string{
		"tier": targetTier.String(),
	})
	return nil
}

// ListIdentities returns every administrative record. Callers gate this
// on tier; the service only reads.
func (s *Service) ListIdentities(ctx context.Context, ev authority.Evidence) ([]*Record, error) {
	acting := s.resolver.Resolve(ctx, ev)
	if !acting.Tier.AtLeast(authority.TierSuperAdmin) {
		return nil, ErrUnauthorized("list identities")
	}
	recs, err := s.store.ListAll()
	if err != nil {
		s.logger.Error("identity list failed", "error", err)
		return nil, ErrInvalid("could not list identities")
	}
	return recs, nil
}

func (s *Service) emit(t audit.EventType, acting authority.Principal, target, decision string, details map[string]string) {
	s.audit.Emit(audit.Event{
		Type:      t,
		Timestamp: time.Now(),
		ActorID:   acting.SubjectID,
		ActorTier: acting.Tier.String(),
		Target:    target,
		Decision:  decision,
		Details:   details,
	})
}

func (s *Service) emitDenied(acting authority.Principal, op authz.Operation, target string, targetTier authority.Tier) {
	s.emit(audit.EventAuthzDenied, acting, target, "deny", map[string]string{
		"operation":   string(op),
		"target_tier": targetTier.String(),
	})
}

func (s *Service) emitPartialFailure(acting authority.Principal, target, detail string) {
	s.emit(audit.EventPartialFailure, acting, target, "error", map[string]string{
		"detail": detail,
	})
}
