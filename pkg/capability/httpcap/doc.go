// Package httpcap implements capability.Provider over plain JSON HTTP
// endpoints. A vision service answers the image operations and an entailment
// service answers CheckEntailment; either may be left unconfigured, in which
// case the matching operations report capability.ErrUnsupported.
//
// Vision endpoints (POST, relative to VisionEndpoint):
//
//	/people     {"image": base64, "mimeType": string}                 -> {"detected", "count", "confidence"}
//	/lockup     {"image": base64, "mimeType": string, "kind": string} -> {"valid", "issues"}
//	/packshots  {"image": base64, "mimeType": string}                 -> {"count", "hasLead", "issues"}
//
// The entailment endpoint receives {"premise", "hypothesis"} and may answer
// either {"entails": bool, "confidence": number} or a classifier label list
// such as [{"label": "ENTAILMENT", "score": 0.93}, ...], optionally nested
// one level deeper.
//
// Requests are retried on network errors and 5xx answers with exponential
// backoff. Three consecutive failures mark the provider unhealthy until the
// next success.
package httpcap
