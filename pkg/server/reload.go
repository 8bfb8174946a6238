package server

import (
	"context"
	"fmt"

	"retailmedia-hq/guardrail/pkg/engine"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/rules/source"
)

// Swap builds an engine for catalog and makes it serve new requests. Requests
// already evaluating finish on the previous engine. On error the previous
// engine stays in effect.
func (s *Server) Swap(catalog *rules.Catalog) error {
	if s.factory == nil {
		return ErrReloadUnsupported
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	eng, err := s.factory(catalog)
	if err != nil {
		s.recordReload(false)
		return fmt.Errorf("failed to build engine for reloaded rules: %w", err)
	}

	previous := s.engine.Swap(eng)
	s.recordReload(true)

	s.logger.Info("rule catalog swapped",
		"version", catalog.Version(),
		"rules", catalog.Len(),
		"previous_rules", catalogLen(previous),
	)
	return nil
}

// Reload loads a catalog from src and swaps it in.
func (s *Server) Reload(ctx context.Context, src source.Source) error {
	catalog, err := src.Load(ctx)
	if err != nil {
		s.recordReload(false)
		return fmt.Errorf("failed to reload rules from %s: %w", src.Describe(), err)
	}
	return s.Swap(catalog)
}

// WatchRules reloads from src whenever watcher reports a change. It blocks
// until ctx is cancelled.
func (s *Server) WatchRules(ctx context.Context, watcher *source.Watcher, src source.Source) error {
	return watcher.Watch(ctx, func() error {
		return s.Reload(ctx, src)
	})
}

// PollRules swaps in the catalog of every new commit poller sees. It blocks
// until ctx is cancelled.
func (s *Server) PollRules(ctx context.Context, poller *source.Poller) error {
	return poller.Run(ctx, s.Swap)
}

func (s *Server) recordReload(success bool) {
	if s.reloads == nil {
		return
	}
	c := s.Catalog()
	if c == nil {
		s.reloads.RecordRulesReload(success, "", 0)
		return
	}
	s.reloads.RecordRulesReload(success, c.Version(), c.Len())
}

func catalogLen(eng *engine.Engine) int {
	if eng == nil {
		return 0
	}
	return eng.Catalog().Len()
}
