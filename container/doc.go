// Package container provides the minimal dependency scope the interception
// core collaborates with: typed registrations, singleton and transient
// lifetimes, and activation hooks that may substitute a freshly resolved
// instance before it reaches the consumer.
//
// It is deliberately not a general-purpose dependency-injection container.
// The interception core consumes exactly two things from it: a post-resolution
// substitution point (ActivationHook) and a scope-scoped resolver for
// interceptor instances.
package container
