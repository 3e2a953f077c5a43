package service

import (
	"errors"

	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/model"
)

var (
	ErrFetchFailure   = errors.New("fetch failure")
	ErrMissingAddress = errors.New("detail has no formatted address")
	ErrInvalidDetail  = errors.New("invalid place detail")
	ErrTransaction    = errors.New("transaction failure")
	ErrQuotaExhausted = errors.New("monthly api quota exhausted")
	ErrNameSource     = errors.New("name source unavailable")
	ErrRunInProgress  = errors.New("ingestion run already in progress")
)

// failureKind 把错误归类到报告里的失败类型
func failureKind(err error) model.FailureKind {
	switch {
	case errors.Is(err, interfaces.ErrPlaceNotFound):
		return model.FailureNotFound
	case errors.Is(err, ErrMissingAddress):
		return model.FailureMissingAddress
	case errors.Is(err, ErrInvalidDetail):
		return model.FailureInvalidDetail
	case errors.Is(err, ErrTransaction):
		return model.FailureTransaction
	case errors.Is(err, ErrQuotaExhausted):
		return model.FailureQuotaExhausted
	default:
		return model.FailureFetch
	}
}
