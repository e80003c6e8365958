// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/server/metrics"
)

// Note that the 40% suspiciousRatio gap between RestrictThreshold and RelaxThreshold exists
// to protect against flapping in networkLimiter state.
const (
	SuspiciousRateFactor    = 0.1             // Fraction of the configured rate granted to a suspicious network.
	SuspiciousBurstDivisor  = 4               // A suspicious network gets a quarter of the configured burst.
	LimiterExpiryDuration   = time.Hour       // How long to keep idle limiters in memory.
	CleanupInterval         = 5 * time.Minute // Interval between limiter cleanup runs.
	MaxNetworkClientHistory = 60              // Max. number of client statuses to track per network.
	RestrictThreshold       = 0.6             // Ratio of suspicious clients that triggers suspicious rate limits.
	RelaxThreshold          = 0.2             // Ratio of suspicious clients that restores normal rate limits.
)

var (
	errInvalidRate     = errors.New("limiter rate must be positive")
	errInvalidBurst    = errors.New("limiter burst must be positive")
	errInvalidListItem = errors.New("invalid IP or CIDR in limiter list")
)

// Options configures a Limiter.
type Options struct {
	Rate         float64
	Burst        int
	IPv4Prefix   int
	IPv6Prefix   int
	PassIPs      []string
	BlockIPs     []string
	CheckHeaders bool

	// ExcludedPaths are path prefixes that are never limited.
	ExcludedPaths []string

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// OptionsFromConfig builds Options from the Limiter section of cfg.
func OptionsFromConfig(cfg *config.ServerConfig, m *metrics.Metrics) Options {
	excluded := []string{"/css/", "/robots.txt", "/healthz"}
	if cfg.Metrics.Enabled {
		excluded = append(excluded, cfg.Metrics.Path)
	}

	return Options{
		Rate:          cfg.Limiter.Rate,
		Burst:         cfg.Limiter.Burst,
		IPv4Prefix:    cfg.Limiter.IPv4Prefix,
		IPv6Prefix:    cfg.Limiter.IPv6Prefix,
		PassIPs:       cfg.Limiter.PassIPs,
		BlockIPs:      cfg.Limiter.BlockIPs,
		CheckHeaders:  cfg.Limiter.CheckHeaders,
		ExcludedPaths: excluded,
		Metrics:       m,
	}
}

// Limiter rate limits requests per client network. It is safe for concurrent use.
type Limiter struct {
	opts      Options
	passList  []netip.Prefix
	blockList []netip.Prefix
	networks  sync.Map // netip.Prefix -> *networkLimiter
	timeNow   func() time.Time
	suspRate  rate.Limit
	suspBurst int
	metrics   *metrics.Metrics
}

// New validates opts and creates a Limiter.
func New(opts Options) (*Limiter, error) {
	if opts.Rate <= 0 {
		return nil, errInvalidRate
	}

	if opts.Burst <= 0 {
		return nil, errInvalidBurst
	}

	passList, err := parseIPList(opts.PassIPs)
	if err != nil {
		return nil, fmt.Errorf("pass list: %w", err)
	}

	blockList, err := parseIPList(opts.BlockIPs)
	if err != nil {
		return nil, fmt.Errorf("block list: %w", err)
	}

	return &Limiter{
		opts:      opts,
		passList:  passList,
		blockList: blockList,
		timeNow:   time.Now,
		suspRate:  rate.Limit(opts.Rate * SuspiciousRateFactor),
		suspBurst: max(1, opts.Burst/SuspiciousBurstDivisor),
		metrics:   opts.Metrics,
	}, nil
}

// clientHistory represents a circular buffer of client suspicious statuses.
type clientHistory struct {
	statuses   []bool // true = suspicious, false = not suspicious
	index      int    // Current index for insertion
	count      int    // Count of items in the buffer
	suspicious int    // Count of suspicious clients
}

// add records one client status, overwriting the oldest once the buffer is full.
func (h *clientHistory) add(isSuspicious bool) {
	if h.statuses == nil {
		h.statuses = make([]bool, MaxNetworkClientHistory)
	}

	if h.count == MaxNetworkClientHistory {
		if h.statuses[h.index] {
			h.suspicious--
		}
	} else {
		h.count++
	}

	h.statuses[h.index] = isSuspicious
	if isSuspicious {
		h.suspicious++
	}

	h.index = (h.index + 1) % MaxNetworkClientHistory
}

// verdict reports whether the network should be relaxed or restricted.
// No decision is made until the buffer is full.
func (h *clientHistory) verdict() (relax, restrict bool) {
	if h.count < MaxNetworkClientHistory {
		return false, false
	}

	ratio := float64(h.suspicious) / float64(h.count)

	return ratio <= RelaxThreshold, ratio >= RestrictThreshold
}

// networkLimiter is the token bucket shared by every client of one network.
type networkLimiter struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	lastAccess   time.Time
	history      clientHistory
	isSuspicious bool
}

// decision is the outcome of taking a token.
type decision struct {
	allowed    bool
	suspicious bool
	limit      int
	remaining  int
	resetAfter int64 // seconds until the bucket is full again
}

// getOrCreate returns the limiter of network, creating it with suspicious
// or regular rates according to the first client seen.
func (l *Limiter) getOrCreate(network netip.Prefix, suspicious bool) *networkLimiter {
	if v, ok := l.networks.Load(network); ok {
		return v.(*networkLimiter)
	}

	nl := &networkLimiter{lastAccess: l.timeNow(), isSuspicious: suspicious}
	if suspicious {
		nl.limiter = rate.NewLimiter(l.suspRate, l.suspBurst)
	} else {
		nl.limiter = rate.NewLimiter(rate.Limit(l.opts.Rate), l.opts.Burst)
	}

	actual, _ := l.networks.LoadOrStore(network, nl)

	return actual.(*networkLimiter)
}

// take records the client's status in the network history, adjusts the
// network's rates if needed and tries to consume one token.
func (l *Limiter) take(network netip.Prefix, suspicious bool) decision {
	nl := l.getOrCreate(network, suspicious)

	now := l.timeNow()

	nl.mu.Lock()
	defer nl.mu.Unlock()

	nl.lastAccess = now

	nl.history.add(suspicious)

	switch relax, restrict := nl.history.verdict(); {
	case relax && nl.isSuspicious:
		nl.limiter.SetLimitAt(now, rate.Limit(l.opts.Rate))
		nl.limiter.SetBurstAt(now, l.opts.Burst)
		nl.isSuspicious = false

		log.Info().
			Str("network", network.String()).
			Msg("Upgraded rate limiter for network")
	case restrict && !nl.isSuspicious:
		nl.limiter.SetLimitAt(now, l.suspRate)
		nl.limiter.SetBurstAt(now, l.suspBurst)
		nl.isSuspicious = true

		log.Warn().
			Str("network", network.String()).
			Msg("Downgraded rate limiter for network")
	}

	allowed := nl.limiter.AllowN(now, 1)

	tokens := nl.limiter.TokensAt(now)
	burst := nl.limiter.Burst()
	limit := nl.limiter.Limit()

	var resetAfter int64
	if tokens < float64(burst) && limit > 0 {
		resetAfter = int64(math.Ceil((float64(burst) - tokens) / float64(limit)))
	}

	return decision{
		allowed:    allowed,
		suspicious: nl.isSuspicious,
		limit:      burst,
		remaining:  max(0, int(math.Min(float64(burst), tokens))),
		resetAfter: resetAfter,
	}
}

// Len returns the number of networks currently tracked.
func (l *Limiter) Len() int {
	n := 0

	l.networks.Range(func(_, _ any) bool {
		n++

		return true
	})

	return n
}
