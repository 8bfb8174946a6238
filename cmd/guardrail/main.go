// Guardrail checks retail-media creatives against retailer compliance rules
// before they are exported.
//
// Usage:
//
//	# Check a snapshot exported from the editor (exit status 1 when blocked)
//	guardrail check creative.json
//
//	# Run the AI-assisted checks too
//	guardrail check --full creative.json
//
//	# List or export the active rule catalog
//	guardrail rules list
//	guardrail rules export --format yaml -o rules.yaml
//
//	# Lint a rule schema document
//	guardrail lint rules.yaml
//
//	# Host the engine over HTTP
//	guardrail serve --config guardrail.yaml
package main

func main() {
	Execute()
}
