// Package rules defines the declarative compliance rule catalog.
//
// A catalog is loaded from a versioned schema document (JSON, or YAML with the
// same keys), validated, and then frozen: every query returns rules in document
// order and no method mutates the catalog. Detectors are driven entirely by the
// rule's detection methods and params, so adding or retuning a rule is a data
// change.
//
// # Schema document
//
//	{
//	  "schema_version": "1.0",
//	  "rules": [
//	    {
//	      "id": "COPY_001",
//	      "name": "No terms and conditions",
//	      "type": "hard_fail",
//	      "category": "copy",
//	      "severity": "block_export",
//	      "detection_method": ["regex", "semantic_nli"],
//	      "params": {"patterns": ["\\bt&c'?s?\\b"]},
//	      "explanation": "...",
//	      "plain_english": "..."
//	    }
//	  ]
//	}
//
// Missing applies_to_formats means the rule applies to every format; missing
// applies_when means it always applies.
//
// # Check dispatch
//
// Rules name the check each detector runs through params: "layoutCheck",
// "regexCheck" and "visionCheck". A regex rule without "regexCheck" that carries
// "patterns" runs the forbidden-pattern scan.
package rules
