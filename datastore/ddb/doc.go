/*
Package ddb provides a DynamoDB implementation of the DocumentStore interface.

The Store supports:
  - Single-table layout: PK holds the collection, SK the record id
  - Conditions compiled into FilterExpressions
  - Ordering, cursors and page size applied in process over the filtered partition
  - All-or-nothing batches and optimistic transactions through TransactWriteItems
  - Polling watches with retry logic and change detection

Key Features:

Revisions:
Every write stores a fresh token in the _rev attribute. Transactions read with
ConsistentRead and guard each touched record with a condition on that token:

	#rev = :rev                  // record read with a revision
	attribute_not_exists(#pk)    // record read as absent

A cancelled TransactWriteItems call with a ConditionalCheckFailed or
TransactionConflict reason makes the transaction run again, up to MaxAttempts.

Timestamps:
Times are stored as fixed-width UTC strings so that they sort lexically. A
CreateTimestamp field in a merge becomes if_not_exists(#f, :v).

Watching:
Watches re-run their query on a ticker:

	snaps := store.Watch(ctx, q,
	    storagemodels.WithPollInterval(time.Second),
	    storagemodels.WithBufferSize(4),
	)

For usage examples, see the package tests.
*/
package ddb
