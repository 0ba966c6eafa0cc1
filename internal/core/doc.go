// Package core provides the business logic for the inventory application.
//
// It is independent of HTTP and of any particular database. Web handlers
// and tests drive it through [Service] and the two workflows; persistence is
// supplied through the [Store] interface.
//
// # Submissions
//
// Every write is composed of two explicit stages:
//
//  1. Validation: [ValidateCategoryForm] or [ValidateItemForm] trims the raw
//     form, applies the field rules and returns a typed input plus a list of
//     [FieldError]. No store access happens here.
//  2. Business rules: [CategoryWorkflow] or [ItemWorkflow] receives the input
//     and the error list. A non-empty list ends the submission as
//     [StateRejected] before any lookup.
//
// Item submissions then pass through the reference check (the category must
// exist, otherwise [StateReferenceMissing]) and the uniqueness check on the
// normalized SKU ([StateColliding] or [StatePersisted]). Category submissions
// check the normalized name; creating a category whose name already exists
// ends as [StateRedirected] pointing at the existing record.
//
// # Uniqueness
//
// Names and SKUs are compared through [NormalizeKey] (trimmed, lowercased).
// During an update the record being updated never collides with itself.
// The check and the write are separate store calls, so two concurrent
// submissions can both pass the check. Backends with a unique index on the
// normalized key report [ErrDuplicateKey], which the workflows turn back into
// a collision result.
//
// # Paths
//
// Records are addressed in URLs by [PathSegment] of their normalized key.
//
// # Error Handling
//
// Workflow results carry user-correctable outcomes. Missing targets return
// errors wrapping [ErrNotFound]; infrastructure failures wrap
// [ErrStoreUnavailable]. [MapError] turns any of these into a [UserMessage]
// with a support code.
package core
