package errs

import "fmt"

type PermissionsError struct {
	Err error
}

func (t PermissionsError) Error() string {
	return fmt.Sprintf("error in permissions: %v", t.Err)
}

func (t PermissionsError) Unwrap() error {
	return t.Err
}

type NotFoundError struct {
	Err error
}

func (t NotFoundError) Error() string {
	return fmt.Sprintf("not found: %v", t.Err)
}

func (t NotFoundError) Unwrap() error {
	return t.Err
}

// ValidationError reports input the caller can fix, such as a malformed subdomain or a site that is not hosted.
type ValidationError struct {
	Err error
}

func (t ValidationError) Error() string {
	return fmt.Sprintf("validation error: %v", t.Err)
}

func (t ValidationError) Unwrap() error {
	return t.Err
}

type ConflictError struct {
	Err error
}

func (t ConflictError) Error() string {
	return fmt.Sprintf("conflict: %v", t.Err)
}

func (t ConflictError) Unwrap() error {
	return t.Err
}

type StorageError struct {
	Err error
}

func (t StorageError) Error() string {
	return fmt.Sprintf("storage error: %v", t.Err)
}

func (t StorageError) Unwrap() error {
	return t.Err
}

type RetryableError struct {
	Err error
}

func (t RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", t.Err)
}

func (t RetryableError) Unwrap() error {
	return t.Err
}
