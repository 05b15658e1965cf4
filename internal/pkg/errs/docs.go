// Package errs holds the typed errors shared by the domain, the application handlers
// and the adapters.
//
// Every error type wraps a sentinel, so callers classify failures with errors.Is:
//
//	switch {
//	case errs.IsValidation(err):          // bad input, 400
//	case errors.Is(err, errs.ErrObjectNotFound):
//	case errors.Is(err, errs.ErrConflict):  // lost update or taken name, retryable
//	case errors.Is(err, errs.ErrStoreIsUnavailable):
//	}
//
// StoreUnavailableError also unwraps to the driver error it carries.
package errs
