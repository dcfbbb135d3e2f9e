package ingestion

import (
	"context"
	"errors"
	"strings"

	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/pkg/validator"
)

// rowState accumulates the values derived by earlier stages.
type rowState struct {
	row        domain.InputRow
	identityNo string
	email      string
	candidate  domain.MemberCandidate
	persisted  *domain.PersistedMember
}

type stage struct {
	name string
	run  func(ctx context.Context, state *rowState) error
}

var uploadRequiredColumns = []string{
	domain.ColumnSite,
	domain.ColumnFullName,
	domain.ColumnIdentityNo,
	domain.ColumnIdentityType,
	domain.ColumnGender,
}

// requiredColumns returns the columns stage one insists on for mode.
func requiredColumns(mode domain.Mode) []string {
	cols := append([]string{}, uploadRequiredColumns...)
	if mode == domain.ModeValidate {
		cols = append(cols, domain.ColumnEmail)
	}
	return cols
}

// pipeline returns the ordered stage list for one file.
func (s *Service) pipeline(mode domain.Mode, checker ReferenceChecker) []stage {
	stages := []stage{
		{name: "required_fields", run: func(_ context.Context, state *rowState) error {
			return checkRequired(state.row, requiredColumns(mode))
		}},
		{name: "identity", run: s.checkIdentity},
		{name: "email", run: s.checkEmail},
		{name: "references", run: func(ctx context.Context, state *rowState) error {
			state.candidate = domain.NewMemberCandidate(state.row, state.identityNo, state.email)
			return checker.Check(ctx, state.candidate)
		}},
	}
	if mode.Commits() {
		stages = append(stages, stage{name: "persist", run: s.persist})
	}
	return stages
}

// runStages stops at the first failing stage.
func runStages(ctx context.Context, stages []stage, state *rowState) *domain.RowError {
	for _, st := range stages {
		err := st.run(ctx, state)
		if err == nil {
			continue
		}
		var rowErr *domain.RowError
		if errors.As(err, &rowErr) {
			return rowErr
		}
		return &domain.RowError{Kind: domain.ReasonUnknownError, Reasons: []string{err.Error()}, Err: err}
	}
	return nil
}

func checkRequired(row domain.InputRow, columns []string) error {
	var missing []string
	for _, column := range columns {
		if !row.Has(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return domain.MissingFieldsError(missing)
	}
	return nil
}

func (s *Service) checkIdentity(ctx context.Context, state *rowState) error {
	raw := state.row.Value(domain.ColumnIdentityNo)
	identityType := domain.IdentityType(state.row.Value(domain.ColumnIdentityType))
	if raw == "" || identityType == "" {
		return &domain.RowError{
			Kind:    domain.ReasonIdentityOrTypeMissing,
			Field:   domain.ColumnIdentityNo,
			Reasons: []string{domain.MessageIdentityOrTypeMissing},
		}
	}

	normalized := strings.TrimSpace(s.normalizer.Normalize(raw, identityType))
	if normalized == "" {
		return &domain.RowError{
			Kind:    domain.ReasonIdentityFormatInvalid,
			Field:   domain.ColumnIdentityNo,
			Reasons: []string{domain.MessageIdentityFormatInvalid},
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	exists, err := s.prober.ExistsIdentity(callCtx, normalized)
	if err != nil {
		return incompleteError(err)
	}
	if exists {
		return &domain.RowError{
			Kind:    domain.ReasonIdentityAlreadyExists,
			Field:   domain.ColumnIdentityNo,
			Reasons: []string{domain.MessageIdentityAlreadyExists},
		}
	}

	state.identityNo = normalized
	return nil
}

func (s *Service) checkEmail(ctx context.Context, state *rowState) error {
	raw := state.row.Value(domain.ColumnEmail)
	if raw == "" {
		return &domain.RowError{
			Kind:    domain.ReasonEmailMissing,
			Field:   domain.ColumnEmail,
			Reasons: []string{domain.MessageEmailMissing},
		}
	}

	email := validator.NormalizeEmail(raw)
	if !validator.IsEmail(email) {
		return &domain.RowError{
			Kind:    domain.ReasonEmailFormatInvalid,
			Field:   domain.ColumnEmail,
			Reasons: []string{domain.MessageEmailFormatInvalid},
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	exists, err := s.prober.ExistsEmail(callCtx, email)
	if err != nil {
		return incompleteError(err)
	}
	if exists {
		return &domain.RowError{
			Kind:    domain.ReasonEmailAlreadyExists,
			Field:   domain.ColumnEmail,
			Reasons: []string{domain.MessageEmailAlreadyExists},
		}
	}

	state.email = email
	return nil
}

func (s *Service) persist(ctx context.Context, state *rowState) error {
	member, err := s.writer.Persist(ctx, state.candidate)
	if err != nil {
		s.logger.WithError(err).WithField("identity_no", state.identityNo).Error("failed to persist member")
		return &domain.RowError{
			Kind:    domain.ReasonGenericInsertFailure,
			Reasons: []string{domain.MessageInsertFailed},
			Err:     err,
		}
	}
	state.persisted = &member
	return nil
}
