package watch

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"lantern/internal/config"
	"lantern/internal/deployapi"
	"lantern/internal/logging"
)

// Resolver produces the set of log groups a watch should tail. It is
// called once at watch start and again on the discovery cadence; an empty
// result is a valid early state, not an error.
type Resolver struct {
	lister  deployapi.GroupLister
	prefix  string
	pattern *regexp.Regexp
	mode    string
	logger  *slog.Logger
}

// NewResolver compiles the pattern (when given) and validates the filter
// mode. At least one of prefix/pattern must be provided.
func NewResolver(lister deployapi.GroupLister, prefix, pattern, mode string, logger *slog.Logger) (*Resolver, error) {
	prefix = strings.TrimSpace(prefix)
	pattern = strings.TrimSpace(pattern)
	if prefix == "" && pattern == "" {
		return nil, fmt.Errorf("a group prefix or pattern is required")
	}
	if mode == "" {
		mode = config.FilterModeIntersect
	}
	if mode != config.FilterModeIntersect && mode != config.FilterModePattern {
		return nil, fmt.Errorf("unknown filter mode %q", mode)
	}
	if mode == config.FilterModePattern && pattern == "" {
		return nil, fmt.Errorf("filter mode %q requires a pattern", mode)
	}

	var compiled *regexp.Regexp
	if pattern != "" {
		var err error
		compiled, err = regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile group pattern: %w", err)
		}
	}

	return &Resolver{
		lister:  lister,
		prefix:  prefix,
		pattern: compiled,
		mode:    mode,
		logger:  logging.NewComponentLogger(logger, "resolver"),
	}, nil
}

// Resolve lists candidate groups and applies the configured filters. In
// intersect mode the prefix scopes the remote listing and the pattern
// filters the result; in pattern mode the full listing is fetched and the
// pattern alone decides membership, which is documented as more expensive.
func (r *Resolver) Resolve(ctx context.Context) ([]GroupRef, error) {
	listPrefix := r.prefix
	if r.mode == config.FilterModePattern {
		listPrefix = ""
	}

	names, err := r.lister.ListGroups(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("list log groups: %w", err)
	}

	now := time.Now()
	refs := make([]GroupRef, 0, len(names))
	for _, name := range names {
		matchedBy := "prefix"
		if r.mode == config.FilterModePattern {
			if !r.pattern.MatchString(name) {
				continue
			}
			matchedBy = "pattern"
		} else if r.pattern != nil {
			if !r.pattern.MatchString(name) {
				continue
			}
			matchedBy = "pattern"
		}
		refs = append(refs, GroupRef{Name: name, MatchedBy: matchedBy, DiscoveredAt: now})
	}

	if len(refs) == 0 {
		r.logger.Debug("no log groups matched",
			logging.String("prefix", r.prefix),
			logging.String("mode", r.mode),
		)
	}
	return refs, nil
}
