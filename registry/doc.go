/*
Package registry binds record types to collection names.

Each Go record type is stored in exactly one named collection:

	registry.RegisterCollection[models.User]("Users")

	name, ok := registry.CollectionOf[models.User]() // "Users", true
	v, err := registry.New("Users")                   // *models.User

Typed collections on the facade resolve their collection name through the
registry, and command-line tools use it to decode records of a collection
given only its name.

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
