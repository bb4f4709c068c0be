// Package share delivers notes to the outside world, by mail compose
// window or a platform share sheet where one exists.
package share

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
)

// BrowserMailer composes mail by opening a mailto: URL with the host
// window's URL opener. The opener is bound at startup because the
// runtime context does not exist before then.
type BrowserMailer struct {
	mu   sync.Mutex
	open func(url string)
}

func NewBrowserMailer() *BrowserMailer {
	return &BrowserMailer{}
}

// Bind installs the URL opener. Compose fails until this is called.
func (m *BrowserMailer) Bind(open func(url string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = open
}

func (m *BrowserMailer) Compose(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	open := m.open
	m.mu.Unlock()
	if open == nil {
		return errors.New("mailer is not bound to a window")
	}

	open(MailtoURL(to, subject, body))
	return nil
}

// MailtoURL builds a mailto: URL with percent-encoded subject and
// body. mailto requires %20 for spaces, not the form-encoded plus.
func MailtoURL(to, subject, body string) string {
	query := url.Values{}
	query.Set("subject", subject)
	query.Set("body", body)
	encoded := strings.ReplaceAll(query.Encode(), "+", "%20")
	return "mailto:" + url.PathEscape(to) + "?" + encoded
}

// NoSharer is the desktop stand-in for a platform share sheet.
type NoSharer struct{}

func (NoSharer) Available() bool { return false }

func (NoSharer) Share(context.Context, string, string) error {
	return errors.New("native sharing is not available on this platform")
}
