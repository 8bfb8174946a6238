// Package capability defines the AI operations the compliance engine can use and
// the plumbing around them: an ordered provider chain with per-call timeouts, a
// result cache decorator and an image loader.
//
// The engine depends only on the Capabilities interface. Hosts inject a Chain
// of concrete providers (see the gemini, cloudvision and httpcap subpackages).
// When no provider is configured the engine receives Disabled, every call fails
// with ErrUnavailable and the semantic and vision phases degrade to no-ops.
package capability
