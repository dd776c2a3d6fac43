package service

import "errors"

var (
	ErrRuleInvalid             = errors.New("pricing rule invalid")
	ErrRuleNotFound            = errors.New("pricing rule not found")
	ErrRuleExternalIDImmutable = errors.New("external discount id is immutable")
	ErrRuleCreateFailed        = errors.New("pricing rule create failed")
	ErrRuleUpdateFailed        = errors.New("pricing rule update failed")
	ErrRuleDeleteFailed        = errors.New("pricing rule delete failed")
	ErrDiscountCreateFailed    = errors.New("external discount create failed")
	ErrRuleSyncFailed          = errors.New("targeting sync failed")
	ErrRuleNeedsRelink         = errors.New("external discount missing, relink required")
	ErrCatalogUnavailable      = errors.New("catalog unavailable")
	ErrSegmentPrecondition     = errors.New("rule has no external discount, save the rule first")
	ErrSegmentNotFound         = errors.New("segment binding not found")
	ErrSegmentAssignFailed     = errors.New("segment assign failed")
	ErrSegmentRemoveFailed     = errors.New("segment remove failed")
	ErrSessionTransition       = errors.New("edit session transition not allowed")
)
