package ticketAuth

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/MrEthical07/ticketAuth/password"
	"github.com/MrEthical07/ticketAuth/validation"
	"github.com/samber/oops"
)

// ProvisionUser hashes in.Password with the two-stage chain and persists the
// new user through the configured UserProvisioner.
//
// An empty in.Salt is replaced by a generated one. A salt shorter than
// password.MinSaltLength fails with ErrConfiguration before anything is
// written; this is the only operation that reports that error.
func (e *Engine) ProvisionUser(ctx context.Context, in NewUser) (User, error) {
	if e == nil {
		return User{}, ErrEngineNotReady
	}
	if e.provisioner == nil {
		return User{}, errors.New("user provisioner not configured")
	}

	user, err := e.buildUser(in)
	if err != nil {
		e.metricInc(MetricProvisionRejected)
		e.emitAudit(ctx, auditEventProvisionFailed, false, in.Identifier, "", err, nil)
		return User{}, err
	}

	if err := e.provisioner.CreateUser(ctx, user); err != nil {
		e.metricInc(MetricProvisionRejected)
		e.emitAudit(ctx, auditEventProvisionFailed, false, user.ID, "", err, nil)
		if errors.Is(err, ErrUserExists) {
			return User{}, ErrUserExists
		}
		return User{}, e.infraError(ctx, "create user", err)
	}

	e.metricInc(MetricUserProvisioned)
	e.emitAudit(ctx, auditEventUserProvisioned, true, user.ID, "", nil, nil)
	return user, nil
}

func (e *Engine) buildUser(in NewUser) (User, error) {
	if !validation.IsMobile(in.Identifier) {
		return User{}, &validation.FieldError{Field: validation.FieldMobile, Message: "invalid mobile number format"}
	}
	if in.Password == "" {
		return User{}, &validation.FieldError{Field: validation.FieldPassword, Message: "must not be empty"}
	}

	salt := in.Salt
	if salt == "" {
		generated, err := e.hasher.NewSalt()
		if err != nil {
			return User{}, fmt.Errorf("%w: %w", ErrInfrastructure, err)
		}
		salt = generated
	}
	if err := password.ValidateSalt(salt); err != nil {
		return User{}, oops.
			Code(CodeConfiguration).
			With("identifier", in.Identifier).
			With("salt_length", utf8.RuneCountInString(salt)).
			Wrap(fmt.Errorf("%w: %w", ErrConfiguration, err))
	}

	hash, err := e.hasher.Hash(in.Password, salt)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	nickname := in.Nickname
	if nickname == "" {
		nickname = in.Identifier
	}
	if ferr := validation.ValidateNickname(nickname); ferr != nil {
		return User{}, ferr
	}

	return User{
		ID:           in.Identifier,
		Nickname:     nickname,
		PasswordHash: hash,
		Salt:         salt,
		Head:         in.Head,
		RegisterDate: e.now().UTC(),
	}, nil
}
