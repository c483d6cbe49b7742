// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jcodagnone/geoconv/geocache"
	"github.com/jcodagnone/geoconv/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// MinRequestInterval is the spacing enforced between consecutive requests.
// Public geocoding services (Nominatim) allow at most one request per
// second, the extra 100ms is margin.
const MinRequestInterval = 1100 * time.Millisecond

const progressInterval = 5 * time.Second

// Placeholders stored instead of an address.
const (
	NotFoundAddress = geocache.NotFoundAddress
	MissingAddress  = geocache.ErrorAddress
)

// PipelineMetrics tracks statistics about a Resolve call.
type PipelineMetrics struct {
	Requested int
	Unique    int
	Cached    int
	Resolved  int
	Failed    int
}

// Merge combines two PipelineMetrics.
func (m *PipelineMetrics) Merge(o *PipelineMetrics) *PipelineMetrics {
	m.Requested += o.Requested
	m.Unique += o.Unique
	m.Cached += o.Cached
	m.Resolved += o.Resolved
	m.Failed += o.Failed

	return m
}

// Pipeline resolves addresses for coordinates, one request at a time, and
// keeps the results in a cache.
type Pipeline struct {
	geocoder ReverseGeocoder
	cache    *geocache.Cache
	limiter  *rate.Limiter
	interval time.Duration
	now      func() time.Time
	progress bool
	Metrics  PipelineMetrics
}

// NewPipeline creates a pipeline writing into cache.
func NewPipeline(geocoder ReverseGeocoder, cache *geocache.Cache) *Pipeline {
	return &Pipeline{
		geocoder: geocoder,
		cache:    cache,
		limiter:  rate.NewLimiter(rate.Every(MinRequestInterval), 1),
		interval: MinRequestInterval,
		now:      time.Now,
		progress: isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// Resolve returns the address of every distinct rounded coordinate in
// points. Coordinates already in the cache are not requested again; when
// all of them are cached the returned map is empty.
//
// A failed lookup never aborts the batch: its error message is stored as
// the address. Cancelling ctx stops issuing new requests. The cache is
// saved once the batch ends, even if it ended early.
func (p *Pipeline) Resolve(ctx context.Context, points []spatial.Point) map[spatial.Key]string {
	keys := make([]spatial.Key, 0, len(points))
	seen := make(map[spatial.Key]struct{}, len(points))

	for _, pt := range points {
		k := spatial.KeyOf(pt)
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	var pending []spatial.Key

	for _, k := range keys {
		if _, ok := p.cache.Get(k); !ok {
			pending = append(pending, k)
		}
	}

	p.Metrics.Requested += len(points)
	p.Metrics.Unique += len(keys)
	p.Metrics.Cached += len(keys) - len(pending)

	if len(pending) == 0 {
		return map[spatial.Key]string{}
	}

	n := len(pending)
	log.Printf("Geocoding %d coordinates with %s (~%.0f seconds)...",
		n, p.geocoder.Name(), (time.Duration(n) * p.interval).Seconds())

	var bar *progressbar.ProgressBar
	if p.progress {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription(remainingDescription(n, p.interval)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(progressInterval),
			progressbar.OptionClearOnFinish(),
		)
	}

	start := p.now()
	before := p.Metrics

	var lastUpdate time.Time

	processed := 0

	for _, k := range pending {
		if err := p.limiter.Wait(ctx); err != nil {
			log.Printf("Geocoding interrupted after %d/%d: %v", processed, n, err)

			break
		}

		address, ok := p.resolve(ctx, k)
		if !ok {
			log.Printf("Geocoding interrupted after %d/%d: %v", processed, n, ctx.Err())

			break
		}

		p.cache.Set(k, address)
		processed++

		if bar != nil {
			bar.Describe(remainingDescription(n-processed, p.interval))

			if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar: %v", err)
			}
		} else if now := p.now(); now.Sub(lastUpdate) > progressInterval {
			remaining := time.Duration(n-processed) * p.interval
			log.Printf("Processed %d/%d [%.0fs elapsed, ~%.0fs remaining]",
				processed, n, now.Sub(start).Seconds(), remaining.Seconds())

			lastUpdate = now
		}
	}

	p.cache.Save()
	log.Printf("Geocoding completed in %.1f seconds - %d resolved, %d failed",
		p.now().Sub(start).Seconds(),
		p.Metrics.Resolved-before.Resolved,
		p.Metrics.Failed-before.Failed)

	out := make(map[spatial.Key]string, len(keys))

	for _, k := range keys {
		addr, ok := p.cache.Get(k)
		if !ok {
			addr = MissingAddress
		}

		out[k] = addr
	}

	return out
}

func remainingDescription(pending int, interval time.Duration) string {
	return fmt.Sprintf("Geocoding (~%.0fs remaining)", (time.Duration(pending) * interval).Seconds())
}

// resolve performs a single lookup, turning every failure into a
// placeholder. It returns false when ctx ended during the lookup, the key
// must then stay unresolved.
func (p *Pipeline) resolve(ctx context.Context, k spatial.Key) (address string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.Metrics.Failed++

			address, ok = fmt.Sprintf("%s: %v", MissingAddress, r), true
		}
	}()

	result, err := p.geocoder.Reverse(ctx, k.Point())
	if ctx.Err() != nil {
		return "", false
	}

	switch {
	case errors.Is(err, ErrNotFound):
		p.Metrics.Failed++

		return NotFoundAddress, true
	case err != nil:
		p.Metrics.Failed++

		if IsRateLimitError(err) || IsQuotaExceededError(err) {
			log.Printf("⚠️  %s is rejecting requests: %v", p.geocoder.Name(), err)
		}

		return MissingAddress + ": " + err.Error(), true
	case result == nil || result.Address == "":
		p.Metrics.Failed++

		return NotFoundAddress, true
	}

	p.Metrics.Resolved++

	return result.Address, true
}
