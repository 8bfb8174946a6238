// Package logging builds the process slog.Logger and carries evaluation
// metadata through context.
//
// Libraries in this module take a *slog.Logger and fall back to
// slog.Default(); only the command wires a configured logger:
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// # Redaction
//
// Snapshots embed canvas images as data URLs and capability providers are
// configured with API keys. With redaction enabled the handler masks:
//
//   - data URLs: data:image/png;base64,iVBOR... -> data:image/png;base64,***
//   - long base64 payloads
//   - Google API keys (AIza...)
//   - bearer tokens and key=/token= query parameters
//   - any string logged under a key containing token, secret or api_key
//
// # Context Fields
//
// WithRequestID, WithEvaluationID, WithFormatID and WithMode attach fields to
// a context; FromContext returns a logger that includes them:
//
//	logger := logging.FromContext(ctx, e.logger)
//	logger.Info("evaluation complete", "score", v.Score)
//	// ... request_id=... evaluation_id=... format_id=instagram_feed score=85
package logging
