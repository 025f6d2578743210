/*
Package datastore defines the document persistence contract behind the estatestore facade.

The main interface is DocumentStore, which stores schemaless records addressed by
collection and id:

	type DocumentStore interface {
	    Get(ctx context.Context, ref storagemodels.DocumentRef) (storagemodels.Record, error)
	    List(ctx context.Context, collection string) ([]storagemodels.Record, error)
	    Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	    Set(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, merge bool) error
	    Update(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any) error
	    Delete(ctx context.Context, ref storagemodels.DocumentRef) error
	    Query(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error)
	    Watch(ctx context.Context, q *storagemodels.Query, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot
	    WatchDocument(ctx context.Context, ref storagemodels.DocumentRef, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot
	    Commit(ctx context.Context, writes []storagemodels.Write) error
	    RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	    Close() error
	}

Implementations:
  - memory: In-process implementation used by tests and local runs
  - ddb: DynamoDB implementation with a single-table layout
  - firestore: Cloud Firestore implementation
  - mongo: MongoDB implementation

Backends resolve the storagemodels timestamp sentinels at commit time and order
query results totally (declared orders, then id ascending), so every backend pages
through the same records in the same order.
*/
package datastore
