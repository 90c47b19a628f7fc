package apperrors

import "errors"

var (
	// ErrConfigIncomplete means no usable connection descriptor was provided.
	// Surfaced before any database work.
	ErrConfigIncomplete = errors.New("connection configuration incomplete")

	// ErrColumnAddNotAllowed means the policy forbids adding columns to an
	// existing table.
	ErrColumnAddNotAllowed = errors.New("adding columns is not allowed")

	// ErrColumnAlterNotAllowed means the policy forbids widening an existing
	// column's type.
	ErrColumnAlterNotAllowed = errors.New("altering columns is not allowed")

	// ErrIncompatibleTypes means two observed column types share no common
	// representation. Requires human schema intervention.
	ErrIncompatibleTypes = errors.New("no compatible column type")

	// ErrColumnCollision means two distinct source property names conform to
	// the same column identifier.
	ErrColumnCollision = errors.New("conformed column name collision")

	ErrTableCreateFailed     = errors.New("table create failed")
	ErrStagingCreateFailed   = errors.New("staging table create failed")
	ErrInsertFailed          = errors.New("insert failed")
	ErrMergeFailed           = errors.New("merge failed")
	ErrSchemaReconcileFailed = errors.New("schema reconcile failed")
)
