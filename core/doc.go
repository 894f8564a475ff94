// Package core contains the shared content model used across the framework:
// role-tagged Content composed of ordered heterogeneous Parts (text, function
// calls, function responses) and the persisted Message record. Higher layers
// (model adapters, the agent loop, memory sources) communicate exclusively in
// these types so that provider wire formats never leak past their adapters.
package core
