package service

import "errors"

var (
	ErrNotFound         = errors.New("error not found")
	ErrValidation       = errors.New("error invalid input")
	ErrQuoteUnavailable = errors.New("error quote unavailable")
	ErrGoalOverdue      = errors.New("error goal is overdue")
)
