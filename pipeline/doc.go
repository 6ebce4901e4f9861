// Package pipeline implements the staged event dispatch used by the
// validation operations.
//
// Every public operation creates a Transaction and a Scope, then builds one
// stage context (an Event) per stage and hands it to the Dispatcher. The
// Dispatcher resolves the handlers registered for the event's Kind from the
// Registry, keeps those whose filters are active, and runs them one after the
// other in ascending Order (ties keep registration order). Handlers cooperate
// by mutating the event in place:
//
//   - Reject stops the stage and the whole operation, carrying an OAuth error
//     code, description and URI back to the caller.
//   - Skip stops the remaining handlers of the stage without failing; the
//     operation continues with whatever the event holds.
//   - Returning an error aborts the operation as a HandlerFault.
//
// # Registration
//
// Registries are assembled once at startup:
//
//	reg, err := handlers.NewDefaultRegistry()
//	if err != nil {
//	    return err
//	}
//	err = reg.Register(pipeline.Descriptor{
//	    ID:      "acme.attach-tenant",
//	    Kind:    events.KindApplyIntrospectionRequest,
//	    Order:   handlers.OrderAttachClientCredentials + 500,
//	    Handler: pipeline.HandlerFunc[*events.ApplyIntrospectionRequest](attachTenant),
//	})
//
// The first dispatch seals the registry; later Register calls fail with
// ErrRegistrySealed. Descriptor IDs are unique: registering the same ID twice
// is a configuration error (ErrDuplicateDescriptor).
package pipeline
