package common

// AuthorizationHeaderName carries the bearer token on outbound requests.
const AuthorizationHeaderName = "Authorization"

// IdempotencyKeyHeaderName carries a client generated key on non-idempotent
// requests so a retried create can be recognised by the server.
const IdempotencyKeyHeaderName = "Idempotency-Key"
