// Package eventsync implements the account and scheduling core for a
// multi-school event platform.
//
// Accounts:
//   - Users register with an email, a role (student, teacher, admin), and a
//     school affiliation for the non-admin roles. Accounts stay locked out of
//     login until the email verification round trip completes.
//   - Purpose-tagged tokens (TokenCodec) drive both verification and password
//     reset. Validity is re-derived from the signed issue timestamp, so no
//     token table is needed; the PasswordChangedAt cutoff makes reset tokens
//     effectively single use.
//
// Authorization:
//   - CanAccess evaluates an Actor against an action and a resource. Admins
//     pass everywhere, teachers operate inside their own school with
//     creator-only mutation of events, students read.
//
// Events:
//   - Events belong to exactly one school. Registering honors the optional
//     deadline and the capacity, and each registration walks the
//     pending/confirmed/cancelled/attended lifecycle enforced by
//     RegistrationLifecycle.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter fed by the login and
//     registration flows. Errors are logged, never propagated, so telemetry
//     cannot block authentication.
package eventsync
