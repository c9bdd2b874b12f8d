package narrator

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/narrate/internal/apperr"
)

// BatchItem is the outcome for one post of NarrateAll.
type BatchItem struct {
	Path   string
	Result *Result
	Err    error
}

// NarrateAll narrates every post under dir whose path relative to dir matches
// glob, in path order. Posts below the length threshold are reported with
// their error and do not stop the batch; the batch stops early only when ctx
// is cancelled.
func (s *Service) NarrateAll(ctx context.Context, dir, glob string, opts Options) ([]BatchItem, error) {
	metas, err := s.store.List(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Path < metas[j].Path })

	var items []BatchItem
	for _, m := range metas {
		if !MatchPost(dir, glob, m.Path) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return items, err
		}
		res, err := s.Narrate(ctx, m.Path, opts)
		if err != nil && !errors.Is(err, apperr.ErrBelowLengthThreshold) {
			s.logger.Warn("batch: narration failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		}
		items = append(items, BatchItem{Path: m.Path, Result: res, Err: err})
	}
	return items, nil
}

// MatchPost reports whether the site-relative path p lies under dir and
// matches glob relative to dir.
func MatchPost(dir, glob, p string) bool {
	rel := p
	if dir = path.Clean(dir); dir != "." {
		prefix := dir + "/"
		if !strings.HasPrefix(p, prefix) {
			return false
		}
		rel = strings.TrimPrefix(p, prefix)
	}
	ok, err := doublestar.Match(glob, rel)
	return err == nil && ok
}
