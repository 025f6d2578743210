/*
Package errors provides semantic error types for estatestore.

Errors come in two tiers. Local precondition failures are ValidationErrors and match
ErrInvalidInput; they are returned before any backend is contacted. Failures reported
by a backend are wrapped in an AuthError, StoreError or TransactionError that names
the failing operation and keeps the native error reachable through errors.Unwrap.

Common Errors:

	var (
	    ErrNotFound        = errors.New("entity not found")
	    ErrAlreadyExists   = errors.New("entity already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrAuth            = errors.New("authentication failed")
	    ErrStore           = errors.New("store operation failed")
	    ErrTransaction     = errors.New("transaction failed")
	    ErrRetryLimit      = errors.New("transaction retry limit exceeded")
	)

Usage:

	_, err := facade.UpdateDocument(ctx, "Users", "123", fields)
	if err != nil {
	    if errors.IsNotFound(err) {
	        // the record does not exist; err is also a StoreError
	    }
	    return err
	}

	err := errors.NewStoreError("update document", errors.NewNotFoundError("Users", "123"))
	// err.Error() == `update document failed: Users with key "123" not found`

Both tiers are compatible with the standard errors.Is and errors.As functions.
*/
package errors
