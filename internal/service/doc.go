// Package service holds the business rules between the HTTP handlers and the
// repositories.
//
// THE LAYERS:
//
//	Handler (HTTP)        → decodes requests, sets cookies, writes JSON
//	Service (this package) → validates, resolves identity, decides what to store
//	Repository            → SQL against SQLite or Postgres
//
// Services never see an *http.Request, and handlers never see SQL. That is
// what lets the same ingest path be tested with plain function calls against
// an in-memory database (see submission_test.go).
//
// TRANSACTIONS:
// Writes that must land together (user + submission, user + provider link)
// run inside repository.Database.WithTx. Helpers such as IdentityResolver
// take the repository.Store they should use instead of a Database, so the
// caller owns the transaction boundary and a helper can never commit half
// of a unit by accident.
//
// CONCURRENCY:
// Two deliveries of the same new submission, or two first sign-ins with the
// same email, can race on a unique key. The loser sees apperror.ErrConflict,
// its transaction is rolled back, and the unit is run once more; the second
// run finds the winner's row and takes the update path.
//
// THE COMPONENTS:
//
//	IdentityResolver  → email and provider identities to users
//	SubmissionService → idempotent, sparse webhook ingest
//	ContextBuilder    → user + latest submission → model.Profile
//	PlanService       → fingerprint-keyed plan cache in front of the generator
//	AuthService       → provider credential → user → session token
package service
