package sources

import (
	"fmt"
	"time"
)

// Registry names of the supported sources.
const (
	SourceWildberries  = "wildberries"
	SourceOzon         = "ozon"
	SourceYandexMarket = "yandex_market"
	SourceGoogleTrends = "google_trends"
)

// Settings holds the per-source construction parameters shared by all clients.
type Settings struct {
	APIURL      string // empty selects the provider's default endpoint
	HTTPTimeout time.Duration
	MaxRetries  int
}

func (s Settings) withDefaults() Settings {
	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = 15 * time.Second
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	return s
}

// New creates a source by registry name.
func New(name string, cfg Settings) (Source, error) {
	cfg = cfg.withDefaults()
	switch name {
	case SourceWildberries:
		return NewWildberriesSource(cfg), nil
	case SourceOzon:
		return NewOzonSource(cfg), nil
	case SourceYandexMarket:
		return NewYandexMarketSource(cfg), nil
	case SourceGoogleTrends:
		return NewGoogleTrendsSource(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", name)
	}
}
