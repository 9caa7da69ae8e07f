package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Profile repository sentinels.
	ErrProfileNotFound   = errors.New("profile not found")
	ErrDocumentTaken     = errors.New("document already registered")
	ErrProfileIDRequired = errors.New("profile id is required")

	// Debt repository sentinels.
	ErrDebtNotFound = errors.New("debt not found")

	// Contact message repository sentinels.
	ErrContactMessageNotFound = errors.New("contact message not found")

	// Document repository sentinels.
	ErrUserDocumentNotFound = errors.New("document not found")
)
