/*
Package estatestore is the document and file access layer of the real-estate
admin console. A Facade wraps a document store, a blob store and an identity
provider behind one set of validated calls with uniform errors.

Backends:
  - Documents: in-memory, DynamoDB, Firestore, MongoDB (see datastore/...)
  - Files: in-memory, local filesystem, S3 (see blobstore/...)
  - Identity: in-memory, Firebase Identity Toolkit (see auth/...)

Every call validates its arguments before reaching a backend. Invalid arguments
fail with an error matching errors.ErrInvalidInput; backend failures are wrapped
in an AuthError, StoreError or TransactionError naming the failing operation.

Basic Usage:

	f := estatestore.New(memory.New(), blobmemory.New("files"), authmemory.New())
	defer f.Close()

	id, _ := f.AddDocument(ctx, "Users", map[string]any{"nom": "Dupont", "prenom": "Jean"})
	rec, _ := f.GetDocumentByID(ctx, "Users", id) // id, nom, prenom, createdAt, updatedAt

	page, _ := f.QueryCollection(ctx, storagemodels.Query{
	    Collection: "Proprietes",
	    Conditions: []storagemodels.Condition{{Field: "statut", Op: storagemodels.OpEqual, Value: "libre"}},
	    Orders:     []storagemodels.Order{{Field: "prix", Direction: storagemodels.Asc}},
	    PageSize:   20,
	})
	// pass page.NextCursor as Cursor, with the same conditions and orders, for the next page

Typed access goes through Collection:

	users, _ := estatestore.For[models.User](f)
	u, _ := users.Get(ctx, id)

Live queries are delivered on a Subscription, or through callbacks:

	sub, _ := f.WatchCollection(ctx, storagemodels.Query{Collection: "Contrats"})
	defer sub.Close()
	for records := range sub.Updates() {
	    ...
	}

Uploads report progress and can be canceled:

	task, _ := f.UploadFileWithProgress(ctx, "proprietes/42/facade.jpg", data, onProgress)
	url, err := task.Wait(ctx)
*/
package estatestore
