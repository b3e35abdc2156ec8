// Package pagestate keeps the current reference token of a "page".
package pagestate

import (
	"fmt"
	"net/url"
	"sync"
)

// Defaults.
const (
	DefaultParam   = "ref"
	DefaultSlotKey = "refstate"
)

// Adapter persists the current reference token of a page.
type Adapter interface {
	// Load returns the current token, or "" when there is none.
	Load() string

	// Save stores token as the current token.
	Save(token string) error

	// Clear forgets the current token.
	Clear() error

	// URL returns the page location carrying the current token.
	URL() string
}

// Page is an Adapter over a location URL and a Slot.
type Page struct {
	mu    sync.Mutex
	loc   *url.URL
	param string
	key   string
	slot  Slot
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithParam sets the query parameter carrying the token.
func WithParam(name string) PageOption {
	return func(p *Page) {
		p.param = name
	}
}

// WithSlotKey sets the slot key the token is saved under.
func WithSlotKey(key string) PageOption {
	return func(p *Page) {
		p.key = key
	}
}

// NewPage creates a Page at location backed by slot.
func NewPage(location string, slot Slot, opts ...PageOption) (*Page, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse location: %w", err)
	}
	if slot == nil {
		slot = NewMemorySlot()
	}

	p := &Page{
		loc:   loc,
		param: DefaultParam,
		key:   DefaultSlotKey,
		slot:  slot,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Navigate replaces the current location, as following a link would.
func (p *Page) Navigate(location string) error {
	loc, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("parse location: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc = loc
	return nil
}

// Load implements Adapter. The query parameter wins over the slot. A slot
// that cannot be read counts as empty.
func (p *Page) Load() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

func (p *Page) load() string {
	if v := p.loc.Query().Get(p.param); v != "" {
		return v
	}
	v, ok, err := p.slot.Get(p.key)
	if err != nil || !ok {
		return ""
	}
	return v
}

// Save implements Adapter. The query parameter is only rewritten when the
// location already carries it.
func (p *Page) Save(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.slot.Set(p.key, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	q := p.loc.Query()
	if q.Has(p.param) {
		q.Set(p.param, token)
		p.loc.RawQuery = q.Encode()
	}
	return nil
}

// Clear implements Adapter.
func (p *Page) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.slot.Remove(p.key); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}

	q := p.loc.Query()
	if q.Has(p.param) {
		q.Del(p.param)
		p.loc.RawQuery = q.Encode()
	}
	return nil
}

// URL implements Adapter.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	u := *p.loc
	q := u.Query()
	if token := p.load(); token != "" {
		q.Set(p.param, token)
	} else {
		q.Del(p.param)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ShareURL returns base with token set as the "ref" query parameter.
func ShareURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(DefaultParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ Adapter = (*Page)(nil)
