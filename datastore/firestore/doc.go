/*
Package firestore provides a Cloud Firestore implementation of the DocumentStore
interface.

Queries run natively. Every query gets a final document id ordering so that pages
are stable, and the last snapshot of a page travels in the cursor:

	page, err := store.Query(ctx, &storagemodels.Query{
	    Collection: "Proprietes",
	    Conditions: []storagemodels.Condition{{Field: "statut", Op: "==", Value: "libre"}},
	    Orders:     []storagemodels.Order{{Field: "prix", Direction: storagemodels.Asc}},
	    PageSize:   20,
	})

Combining filters and orders on different fields needs a composite index. Its
absence is reported by the backend and returned unchanged.

Watches attach snapshot listeners. A listener that fails delivers the error and is
attached again after a backoff, until the context is done.

Transactions buffer writes until the function returns, so the records a write
needs (an update target, a CreateTimestamp field) are read before anything is
written. Batches run the same way without reads of their own.

Use Connect with a project id, or New with an existing client. Setting
FIRESTORE_EMULATOR_HOST points the client at the emulator.
*/
package firestore
