/*
Package mongo provides a MongoDB implementation of the DocumentStore interface.

Each collection maps to a MongoDB collection of the same name, and the record id
is stored as _id. Every write also stores a fresh revision token in _rev, which
is stripped from returned records.

Writes are update pipelines, so timestamps resolve on the server side of a single
round trip:

	{$set: {updatedAt: {$literal: now}, createdAt: {$ifNull: ["$createdAt", now]}}}

Queries compile to a filter, a sort with a final _id key, and a limit. Cursors
resume with a keyset filter over the order fields and _id.

Transactions and batches use multi-document transactions and therefore need a
replica set. Watches use change streams, which have the same requirement.

Connect retries the initial connection with exponential backoff:

	store, err := mongo.Connect(ctx, mongo.Config{
	    URI:      "mongodb://localhost:27017/?replicaSet=rs0",
	    Database: "estate",
	})
*/
package mongo
