// Package model defines the reasoning capability abstraction consumed by the
// agent loop and the decomposition pipeline, plus a scripted MockModel for
// tests. Provider adapters live in the model/anthropic and model/openai
// subpackages; they translate the normalized Request/Response structures into
// the respective vendor wire formats so downstream logic never branches on
// provider.
package model
