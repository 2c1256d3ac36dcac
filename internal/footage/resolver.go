// Package footage resolves keyword timelines into background footage
// timelines using a stock video search service.
package footage

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"

	"factreel/internal/logging"
	"factreel/internal/services"
	"factreel/internal/services/pexels"
	"factreel/internal/timeline"
)

// Searcher looks up candidate videos for a single search term.
type Searcher interface {
	Search(ctx context.Context, query string) ([]pexels.Video, error)
}

// Orientation names accepted by Config.
const (
	Landscape = "landscape"
	Portrait  = "portrait"
)

// Config controls clip selection.
type Config struct {
	Orientation    string
	MinClipSeconds int
}

// Resolver picks one clip per segment, never reusing a clip within a job.
type Resolver struct {
	searcher Searcher
	cfg      Config
	logger   *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(searcher Searcher, cfg Config, logger *slog.Logger) *Resolver {
	if cfg.Orientation != Portrait {
		cfg.Orientation = Landscape
	}
	if cfg.MinClipSeconds <= 0 {
		cfg.MinClipSeconds = 15
	}
	return &Resolver{
		searcher: searcher,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "footage"),
	}
}

// Resolve maps every query entry to a resource entry over the same segment.
// Keywords are tried in order and the first acceptable clip wins; a segment
// with no acceptable clip gets a nil Resource. Lookup failures abort.
func (r *Resolver) Resolve(ctx context.Context, qt timeline.QueryTimeline) (timeline.ResourceTimeline, error) {
	if r.searcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "footage", "resolve", "search service not configured", nil)
	}
	used := make(map[string]struct{})
	out := make(timeline.ResourceTimeline, 0, len(qt))
	for _, entry := range qt {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref, err := r.resolveEntry(ctx, entry, used)
		if err != nil {
			return nil, err
		}
		out = append(out, timeline.ResourceEntry{Segment: entry.Segment, Resource: ref})
	}
	r.logger.Info("footage resolved",
		logging.Int("segments", len(out)),
		logging.Int("unresolved", out.Unresolved()),
	)
	return out, nil
}

func (r *Resolver) resolveEntry(ctx context.Context, entry timeline.QueryEntry, used map[string]struct{}) (*timeline.ResourceRef, error) {
	for _, keyword := range entry.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		videos, err := r.searcher.Search(ctx, keyword)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil, ctxErr
			}
			return nil, services.Wrap(services.ErrServiceFailure, "footage", "search", keyword, err)
		}
		link := r.pick(videos, used)
		if link == "" {
			r.logger.Debug("no clip for keyword",
				logging.String("keyword", keyword),
				logging.String("segment", entry.Segment.String()),
			)
			continue
		}
		used[clipKey(link)] = struct{}{}
		return &timeline.ResourceRef{URL: link, Keyword: keyword}, nil
	}
	r.logger.Info("segment unresolved", logging.String("segment", entry.Segment.String()))
	return nil, nil
}

// pick returns the link of the best unused file matching the configured
// frame size. Candidates closest to the minimum clip length are preferred.
func (r *Resolver) pick(videos []pexels.Video, used map[string]struct{}) string {
	width, height := r.frameSize()
	candidates := make([]pexels.Video, 0, len(videos))
	for _, v := range videos {
		if v.Duration < r.cfg.MinClipSeconds {
			continue
		}
		if v.Width < width || v.Height < height {
			continue
		}
		if (v.Width > v.Height) != (width > height) {
			continue
		}
		candidates = append(candidates, v)
	}
	target := float64(r.cfg.MinClipSeconds)
	sort.SliceStable(candidates, func(i, j int) bool {
		return math.Abs(float64(candidates[i].Duration)-target) < math.Abs(float64(candidates[j].Duration)-target)
	})
	for _, v := range candidates {
		for _, file := range v.VideoFiles {
			if file.Width != width || file.Height != height || strings.TrimSpace(file.Link) == "" {
				continue
			}
			if _, seen := used[clipKey(file.Link)]; seen {
				continue
			}
			return file.Link
		}
	}
	return ""
}

func (r *Resolver) frameSize() (int, int) {
	if r.cfg.Orientation == Portrait {
		return 1080, 1920
	}
	return 1920, 1080
}

// clipKey strips rendition suffixes so two renditions of one clip collide.
func clipKey(link string) string {
	if idx := strings.Index(link, ".hd"); idx > 0 {
		return link[:idx]
	}
	if idx := strings.Index(link, "?"); idx > 0 {
		return link[:idx]
	}
	return link
}
