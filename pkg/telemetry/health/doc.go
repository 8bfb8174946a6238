// Package health provides liveness and readiness checks for the guardrail
// server.
//
// Components register checks with a Checker. The rule catalog is registered
// as critical; AI capability providers and the result cache are optional, so
// their failure reports "degraded" while the server keeps evaluating with the
// checks it can still run:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("rules", func(ctx context.Context) error {
//	    if srv.Catalog() == nil {
//	        return errors.New("no rule catalog loaded")
//	    }
//	    return nil
//	})
//	checker.RegisterOptionalCheck("capability.vision-http", provider.HealthCheck)
//	health.Register(mux, checker, version, commit, buildTime)
//
// A check returning ErrDisabled is reported as "disabled".
package health
