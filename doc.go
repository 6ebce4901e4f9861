// Package validation verifies OAuth 2.0 / OpenID Connect access tokens on the
// resource server side.
//
// A Service exposes four operations:
//
//   - FetchConfiguration retrieves and checks a discovery document.
//   - FetchSigningKeys retrieves a JSON Web Key Set.
//   - IntrospectToken asks an RFC 7662 endpoint about a token.
//   - ValidateAccessToken validates a JWT access token locally, discovering
//     the issuer's keys when needed, and optionally falls back to
//     introspection for opaque tokens.
//
// Every operation runs as a transaction through a staged pipeline (see the
// pipeline package). Request operations go through Prepare, Apply, Extract
// and Handle stages; local validation has a single Authenticate stage. The
// built-in handlers live in the handlers package and can be complemented or
// replaced by registering descriptors on a custom registry:
//
//	reg, _ := handlers.NewDefaultRegistry()
//	_ = reg.Register(myDescriptor)
//	svc, err := validation.NewService(
//	    validation.WithIssuer("https://login.example.com"),
//	    validation.WithAudiences("https://api.example.com"),
//	    validation.WithRegistry(reg),
//	)
//
// A rejected operation returns a *Error carrying the OAuth error code,
// description and URI. Malformed arguments return ErrInputInvalid; pipeline
// faults return errors wrapping ErrInternal.
package validation
