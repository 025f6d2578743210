/*
Package models defines the typed records of the real estate console and binds
each of them to its collection.

Importing the package registers the bindings, so typed access works by type:

	props, err := estatestore.For[models.Property](facade)
	if err != nil {
		return err
	}
	free, next, err := props.Query(ctx, storagemodels.Query{
		Conditions: []storagemodels.Condition{{Field: "statut", Op: storagemodels.OpEqual, Value: string(models.PropertyFree)}},
		PageSize:   20,
	})

Status fields are string enums. Older records store several of them as integer
codes (a property statut of 1 means occupe); decoding accepts both forms, while
writes always store the name. Queries compare stored values as they are, so a
filter on "occupe" does not match a record still holding 1.

Seed builds a deterministic demo dataset for local backends and the CLI.
*/
package models
