// Package planner implements the Source Planner: two ordered queues
// (approved, candidate), tier-ordered selection, discovery enqueue, and
// helper injection (spec.md §4.2).
package planner

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ruledb"
)

// QueueItem is one planned fetch, before a Source row exists.
type QueueItem struct {
	URL      string
	Host     string
	Tier     model.Tier
	Role     string
	Seeded   bool
	Preferred bool
}

// Planner maintains the approved and candidate queues for one run.
type Planner struct {
	mu sync.Mutex

	category      string
	approvedHosts []string
	deniedHosts   []string
	preferredHosts map[string]bool

	approved  []QueueItem
	candidate []QueueItem

	visited       map[string]int // host -> visit count
	blocked       map[string]string
	maxURLs       int
	maxPerDomain  int
}

// Config bundles the planner's budget knobs.
type Config struct {
	MaxURLsPerProduct int
	MaxPagesPerDomain int
}

// New builds a Planner from the job's category rule-store entry.
func New(category string, cat ruledb.CategoryConfig, cfg Config) *Planner {
	preferred := make(map[string]bool)
	return &Planner{
		category:       category,
		approvedHosts:  cat.ApprovedHosts,
		deniedHosts:    cat.DeniedHosts,
		preferredHosts: preferred,
		visited:        make(map[string]int),
		blocked:        make(map[string]string),
		maxURLs:        cfg.MaxURLsPerProduct,
		maxPerDomain:   cfg.MaxPagesPerDomain,
	}
}

// Plan seeds the queues from the job's seed_urls and approved host list,
// per §4.2 "plan(job, config) -> initial queues".
func (p *Planner) Plan(job model.ProductJob) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, seedHint := range job.SeedURLs {
		host := normalizeHost(seedHint)
		if host == "" || p.isDeniedLocked(host) {
			continue
		}
		p.approved = append(p.approved, QueueItem{
			URL: seedHint, Host: host, Tier: tierForHost(host, p.approvedHosts), Seeded: true, Preferred: true,
		})
	}
	p.sortLocked()
}

// HasNext reports whether either queue still holds an item; Next may still
// skip items whose host is blocked or over the per-domain limit.
func (p *Planner) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.approved) > 0 || len(p.candidate) > 0
}

// Next pops the highest-priority eligible item, enforcing max_urls_per_product,
// max_pages_per_domain, and the denied-host list.
func (p *Planner) Next() (QueueItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.approved) > 0 || len(p.candidate) > 0 {
		var item QueueItem
		if len(p.approved) > 0 {
			item, p.approved = p.approved[0], p.approved[1:]
		} else {
			item, p.candidate = p.candidate[0], p.candidate[1:]
		}
		if p.visited[item.Host] >= p.maxPerDomain {
			continue
		}
		if _, blocked := p.blocked[item.Host]; blocked {
			continue
		}
		p.visited[item.Host]++
		return item, true
	}
	return QueueItem{}, false
}

// DiscoverFromHTML enqueues outbound links found in a fetched page's HTML
// that are either category-approved or a manufacturer-adjacent subpath of
// the current root domain. Discovery-only URLs (robots.txt, sitemaps,
// search pages) are never enqueued.
func (p *Planner) DiscoverFromHTML(sourceURL string, links []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rootDomain := rootDomainOf(sourceURL)
	for _, link := range links {
		if isDiscoveryOnly(link) {
			continue
		}
		host := normalizeHost(link)
		if host == "" || p.isDeniedLocked(host) {
			continue
		}
		switch {
		case ruledb.IsApprovedHost(host, p.approvedHosts):
			p.approved = append(p.approved, QueueItem{URL: link, Host: host, Tier: tierForHost(host, p.approvedHosts)})
		case isManufacturerAdjacent(link, rootDomain):
			p.candidate = append(p.candidate, QueueItem{URL: link, Host: host, Tier: model.TierCandidate})
		}
	}
	p.sortLocked()
}

// BlockHost removes a host from both queues and future selection.
func (p *Planner) BlockHost(host, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked[host] = reason
	p.approved = filterOutHost(p.approved, host)
	p.candidate = filterOutHost(p.candidate, host)
}

func (p *Planner) isDeniedLocked(host string) bool {
	if ruledb.IsDeniedHost(host, p.deniedHosts) {
		return true
	}
	_, blocked := p.blocked[host]
	return blocked
}

func (p *Planner) sortLocked() {
	sortQueue(p.approved)
	sortQueue(p.candidate)
}

func sortQueue(q []QueueItem) {
	sort.SliceStable(q, func(i, j int) bool {
		if q[i].Tier != q[j].Tier {
			return q[i].Tier < q[j].Tier
		}
		if q[i].Preferred != q[j].Preferred {
			return q[i].Preferred
		}
		return q[i].Seeded && !q[j].Seeded
	})
}

func filterOutHost(q []QueueItem, host string) []QueueItem {
	out := q[:0]
	for _, item := range q {
		if item.Host != host {
			out = append(out, item)
		}
	}
	return out
}

// normalizeHost lowercases and strips a leading "www." from the URL's host.
func normalizeHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	h := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(h, "www.")
}

func rootDomainOf(rawURL string) string {
	host := normalizeHost(rawURL)
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

func tierForHost(host string, approved []string) model.Tier {
	if ruledb.IsApprovedHost(host, approved) {
		return model.TierManufacturer
	}
	return model.TierCandidate
}

var manufacturerAdjacentPaths = []string{"/support", "/manual", "/product"}

func isManufacturerAdjacent(link, rootDomain string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if rootDomainOf(link) != rootDomain {
		return false
	}
	for _, prefix := range manufacturerAdjacentPaths {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}

func isDiscoveryOnly(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	lower := strings.ToLower(u.Path)
	if lower == "/robots.txt" || lower == "/sitemap.xml" {
		return true
	}
	if strings.HasPrefix(lower, "/search") && u.RawQuery != "" {
		return true
	}
	return false
}
