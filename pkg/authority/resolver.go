package authority

import (
	"context"
	"log/slog"
)

// SessionVerifier is the slice of the credential directory the resolver
// consumes: it either vouches for a subject or it does not.
type SessionVerifier interface {
	// VerifySession returns the verified subject for a session token.
	// ok is false when the token is absent, invalid, or expired.
	VerifySession(ctx context.Context, token string) (subjectID string, ok bool, err error)
}

// SubjectRecord is the subset of a stored administrative identity the
// resolver needs to assign a tier.
type SubjectRecord struct {
	ID            string
	Tier          Tier
	ContactHandle string
}

// RecordSource looks up the administrative record for a verified
// subject. A nil record with nil error means no record exists.
type RecordSource interface {
	FindSubject(subjectID string) (*SubjectRecord, error)
}

// Config contains options for the Resolver.
type Config struct {
	// Logger for structured decision logging. If nil, uses slog.Default().
	Logger *slog.Logger

	// ImplicitAdmin restores the legacy behavior of granting Admin tier
	// to any subject the directory vouches for even when no record has
	// been provisioned. Off by default: unprovisioned subjects resolve
	// to User.
	ImplicitAdmin bool
}

// Resolver produces a Principal for a request by running a fixed,
// ordered chain of steps; the first decisive step wins. The ordering is
// a precedence rule: the master check runs before the directory is
// consulted, so master access survives a directory outage.
//
// Resolution always terminates with some Principal. Failure to identify
// the caller is the valid User result, never an error.
type Resolver struct {
	steps  []step
	logger *slog.Logger
}

// step is one entry in the resolution chain. A nil result means "not
// decisive, try the next step".
type step struct {
	name string
	fn   func(ctx context.Context, ev Evidence) *Principal
}

// NewResolver builds the resolution chain from the master recognizer,
// the session verifier, and the record source.
func NewResolver(rec *Recognizer, sessions SessionVerifier, records RecordSource, cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resolver{logger: logger}
	r.steps = []step{
		{name: "master-key", fn: r.masterStep(rec)},
		{name: "directory-session", fn: r.sessionStep(sessions, records, cfg.ImplicitAdmin)},
	}
	return r
}

// Resolve runs the chain and returns the acting Principal.
func (r *Resolver) Resolve(ctx context.Context, ev Evidence) Principal {
	for _, st := range r.steps {
		if p := st.fn(ctx, ev); p != nil {
			r.logDecision(st.name, *p)
			return *p
		}
	}

	p := Principal{Tier: TierUser}
	r.logDecision("default", p)
	return p
}

// masterStep yields the master principal when the recognizer accepts
// the evidence. It deliberately touches nothing else.
func (r *Resolver) masterStep(rec *Recognizer) func(context.Context, Evidence) *Principal {
	return func(_ context.Context, ev Evidence) *Principal {
		if !rec.Recognize(ev) {
			return nil
		}
		return &Principal{
			Tier:          TierMaster,
			SubjectID:     MasterSubjectID,
			ContactHandle: rec.Handle(),
		}
	}
}

// sessionStep asks the directory for a verified subject and assigns a
// tier from the stored record. Directory unavailability is treated as
// "no verified subject", not as a failure.
func (r *Resolver) sessionStep(sessions SessionVerifier, records RecordSource, implicitAdmin bool) func(context.Context, Evidence) *Principal {
	return func(ctx context.Context, ev Evidence) *Principal {
		if ev.SessionToken == "" || sessions == nil {
			return nil
		}

		subjectID, ok, err := sessions.VerifySession(ctx, ev.SessionToken)
		if err != nil {
			r.logger.Warn("session verification unavailable, treating as anonymous", "error", err)
			return nil
		}
		if !ok {
			return nil
		}

		rec, err := records.FindSubject(subjectID)
		if err != nil {
			// Verified subject but an undeterminable record: fail toward
			// the least privilege we can still justify.
			r.logger.Warn("record lookup failed for verified subject", "subject", subjectID, "error", err)
			return &Principal{Tier: TierUser, SubjectID: subjectID}
		}
		if rec == nil {
			if implicitAdmin {
				return &Principal{Tier: TierAdmin, SubjectID: subjectID}
			}
			return &Principal{Tier: TierUser, SubjectID: subjectID}
		}

		return &Principal{
			Tier:          rec.Tier,
			SubjectID:     rec.ID,
			ContactHandle: rec.ContactHandle,
		}
	}
}

func (r *Resolver) logDecision(stepName string, p Principal) {
	r.logger.Debug("authority resolved",
		"step", stepName,
		"tier", p.Tier.String(),
		"subject", p.SubjectID,
	)
}
