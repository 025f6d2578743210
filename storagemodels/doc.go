/*
Package storagemodels defines the data structures shared by the facade and every
storage backend.

Key Types:

Record:
A stored document, its fields plus the attached id:

	rec := storagemodels.Record{"id": "u1", "nom": "Dupont", "prenom": "Jean"}

Query:
Conditions, then orders, then page size, then cursor:

	q := &storagemodels.Query{
	    Collection: "Proprietes",
	    Conditions: []storagemodels.Condition{{Field: "statut", Op: storagemodels.OpEqual, Value: 0}},
	    Orders:     []storagemodels.Order{{Field: "prix", Direction: storagemodels.Asc}},
	    PageSize:   2,
	}

Feeding QueryResult.NextCursor back as Query.Cursor with identical conditions and
orders returns the next disjoint page.

Write:
One write of a batch or transaction (set, update or delete).

Snapshot:
One delivery of a live watch, always the full current result set:

	type Snapshot struct {
	    Records  []Record
	    Err      error
	    Sequence int64
	    ReadTime time.Time
	}

Timestamp sentinels:
ServerTimestamp and CreateTimestamp are field values that backends replace with
their commit time; CreateTimestamp keeps a value the record already holds.

The evaluation helpers (Matches, Sort, ApplyWindow, Evaluate) give backends that
cannot filter, sort or page natively the same semantics as those that can.
*/
package storagemodels
