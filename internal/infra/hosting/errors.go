package hosting

import "errors"

var (
	ErrNotFound         = errors.New("subdomain not found")
	ErrClaimed          = errors.New("subdomain is already claimed")
	ErrBusy             = errors.New("subdomain is busy, try again later")
	ErrInvalidSubdomain = errors.New("invalid subdomain")
	ErrExhausted        = errors.New("no free subdomain left for this name")
)
