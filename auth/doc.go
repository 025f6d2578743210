/*
Package auth defines the identity provider contract and the Session that tracks
the signed-in user.

A Session calls its listeners once on registration and again on every sign-in
and sign-out:

	session := auth.NewSession(provider)
	stop := session.OnChange(func(id *auth.Identity) {
	    if id == nil {
	        log.Println("signed out")
	    }
	})
	defer stop()

Providers:
  - memory: accounts kept in process, passwords hashed with bcrypt
  - identitytoolkit: the Firebase Identity Toolkit REST API
*/
package auth
