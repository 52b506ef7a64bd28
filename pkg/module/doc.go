// Package module defines the capability contract every pluggable processing
// unit must satisfy and the static factory registry the runtime resolves
// module names against.
//
// Modules are registered by name at process startup through an explicit map
// from string to constructor. There is no runtime scanning of loaded code:
// exactly one factory can be live per name, which removes the
// ambiguity-on-multiple-matches hazard of discovery-based loading.
package module
