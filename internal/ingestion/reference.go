package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const foreignKeyViolation = "23503"

// Reference checking modes.
const (
	ReferenceModeSpeculative = "speculative"
	ReferenceModeSnapshot    = "snapshot"
)

// ReferenceRule ties a foreign key constraint to the upload column it guards.
type ReferenceRule struct {
	ConstraintSuffix string
	Column           string
	Field            string
	Label            string
	RefTable         string
	TableLabel       string
}

// Reason renders the report text for a missing reference value.
func (r ReferenceRule) Reason(value string) string {
	return fmt.Sprintf("%s ID %s does not exist in table %s", r.Label, value, r.TableLabel)
}

// ReferenceRules lists every foreign key a member row carries.
var ReferenceRules = []ReferenceRule{
	{ConstraintSuffix: "race_id_fkey", Column: domain.ColumnRace, Field: "race_id", Label: "Race", RefTable: "races", TableLabel: "Races"},
	{ConstraintSuffix: "gender_fkey", Column: domain.ColumnGender, Field: "gender", Label: "Gender", RefTable: "genders", TableLabel: "Genders"},
	{ConstraintSuffix: "nationality_id_fkey", Column: domain.ColumnNationality, Field: "nationality_id", Label: "Nationality", RefTable: "nationalities", TableLabel: "Nationalities"},
	{ConstraintSuffix: "identity_type_fkey", Column: domain.ColumnIdentityType, Field: "identity_type", Label: "Identity type", RefTable: "identity_types", TableLabel: "Identity Types"},
	{ConstraintSuffix: "district_id_fkey", Column: domain.ColumnDistrict, Field: "district_id", Label: "District", RefTable: "districts", TableLabel: "Districts"},
	{ConstraintSuffix: "state_id_fkey", Column: domain.ColumnState, Field: "state_id", Label: "State", RefTable: "states", TableLabel: "States"},
	{ConstraintSuffix: "site_id_fkey", Column: domain.ColumnSite, Field: "site_id", Label: "Site", RefTable: "sites", TableLabel: "Sites"},
}

// ReferenceChecker verifies that every reference value of a candidate exists.
// Failures are returned as *domain.RowError.
type ReferenceChecker interface {
	Check(ctx context.Context, candidate domain.MemberCandidate) error
}

// SpeculativeChecker inserts the candidate into the staging table and lets the
// database enforce its foreign keys. The staged row is always removed.
type SpeculativeChecker struct {
	store   repository.RecordStore
	rules   []ReferenceRule
	timeout time.Duration
	logger  logrus.FieldLogger
}

// NewSpeculativeChecker builds a checker using ReferenceRules.
func NewSpeculativeChecker(store repository.RecordStore, timeout time.Duration, logger logrus.FieldLogger) *SpeculativeChecker {
	return &SpeculativeChecker{
		store:   store,
		rules:   ReferenceRules,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *SpeculativeChecker) Check(ctx context.Context, candidate domain.MemberCandidate) error {
	fields := candidate.Fields()
	if rowErr := canonicalReferences(fields, c.rules); rowErr != nil {
		return rowErr
	}

	insertCtx, cancel := context.WithTimeout(ctx, c.timeout)
	id, err := c.store.Insert(insertCtx, domain.TableMembersStaging, fields)
	cancel()

	if id != "" {
		c.discard(ctx, id)
	}
	if err != nil {
		return decodeInsertError(err, fields, c.rules)
	}
	return nil
}

// discard removes a staged row. It runs on a fresh deadline so a cancelled
// request still cleans up; failures are only logged.
func (c *SpeculativeChecker) discard(ctx context.Context, id string) {
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if err := c.store.Delete(deleteCtx, domain.TableMembersStaging, id); err != nil {
		c.logger.WithError(err).WithField("staging_id", id).Warn("failed to remove staged member")
	}
}

// SnapshotChecker validates references against id sets fetched once per file.
type SnapshotChecker struct {
	rules   []ReferenceRule
	valid   map[string]map[string]struct{}
	loadErr error
}

// LoadSnapshotChecker prefetches the ids of every reference table. A load
// failure is kept and reported on each checked row.
func LoadSnapshotChecker(ctx context.Context, store repository.RecordStore, timeout time.Duration) *SnapshotChecker {
	checker := &SnapshotChecker{
		rules: ReferenceRules,
		valid: make(map[string]map[string]struct{}, len(ReferenceRules)),
	}

	for _, rule := range checker.rules {
		if _, loaded := checker.valid[rule.RefTable]; loaded {
			continue
		}

		listCtx, cancel := context.WithTimeout(ctx, timeout)
		ids, err := store.ListValues(listCtx, rule.RefTable, "id")
		cancel()
		if err != nil {
			checker.loadErr = fmt.Errorf("failed to load %s: %w", rule.RefTable, err)
			return checker
		}

		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		checker.valid[rule.RefTable] = set
	}

	return checker
}

func (c *SnapshotChecker) Check(_ context.Context, candidate domain.MemberCandidate) error {
	if c.loadErr != nil {
		return incompleteError(c.loadErr)
	}

	fields := candidate.Fields()
	if rowErr := canonicalReferences(fields, c.rules); rowErr != nil {
		return rowErr
	}
	for _, rule := range c.rules {
		value, ok := fields[rule.Field]
		if !ok || value == nil {
			continue
		}
		text := fmt.Sprint(value)
		if _, found := c.valid[rule.RefTable][text]; !found {
			return referenceError(rule, text)
		}
	}
	return nil
}

// canonicalReferences rewrites every reference value in fields to its decimal
// integer form, the way PostgreSQL casts text into a bigint key. A value that
// is not an integer can never match a reference row.
func canonicalReferences(fields map[string]any, rules []ReferenceRule) *domain.RowError {
	for _, rule := range rules {
		value, ok := fields[rule.Field]
		if !ok || value == nil {
			continue
		}
		text := strings.TrimSpace(fmt.Sprint(value))
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return referenceError(rule, text)
		}
		fields[rule.Field] = strconv.FormatInt(id, 10)
	}
	return nil
}

// decodeInsertError classifies a failed staging insert.
func decodeInsertError(err error, fields map[string]any, rules []ReferenceRule) *domain.RowError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return incompleteError(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != foreignKeyViolation {
			return &domain.RowError{Kind: domain.ReasonUnknownError, Reasons: []string{pgErr.Message}, Err: err}
		}
		if rule, ok := matchRule(rules, pgErr.ConstraintName, pgErr.Message); ok {
			return referenceError(rule, fmt.Sprint(fields[rule.Field]))
		}
		return &domain.RowError{Kind: domain.ReasonReferenceViolation, Reasons: []string{domain.MessageInvalidReference}, Err: err}
	}

	message := err.Error()
	if strings.Contains(message, "foreign key constraint") {
		if rule, ok := matchRule(rules, "", message); ok {
			return referenceError(rule, fmt.Sprint(fields[rule.Field]))
		}
		return &domain.RowError{Kind: domain.ReasonReferenceViolation, Reasons: []string{domain.MessageInvalidReference}, Err: err}
	}

	return &domain.RowError{Kind: domain.ReasonUnknownError, Reasons: []string{message}, Err: err}
}

func matchRule(rules []ReferenceRule, constraint, message string) (ReferenceRule, bool) {
	if constraint != "" {
		for _, rule := range rules {
			if strings.HasSuffix(constraint, rule.ConstraintSuffix) {
				return rule, true
			}
		}
	}
	for _, rule := range rules {
		if strings.Contains(message, rule.ConstraintSuffix) {
			return rule, true
		}
	}
	return ReferenceRule{}, false
}

func referenceError(rule ReferenceRule, value string) *domain.RowError {
	return &domain.RowError{
		Kind:    domain.ReasonReferenceViolation,
		Field:   rule.Column,
		Reasons: []string{rule.Reason(value)},
	}
}

func incompleteError(err error) *domain.RowError {
	return &domain.RowError{
		Kind:    domain.ReasonValidationIncomplete,
		Reasons: []string{"Validation could not complete: " + err.Error()},
		Err:     err,
	}
}

var (
	_ ReferenceChecker = (*SpeculativeChecker)(nil)
	_ ReferenceChecker = (*SnapshotChecker)(nil)
)
