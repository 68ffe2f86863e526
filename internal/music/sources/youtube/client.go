package youtube

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "github.com/bdandy/go-socks4"
	"golang.org/x/net/proxy"
)

const clientTimeout = 15 * time.Second

// NewHTTPClient builds the client used for YouTube traffic. proxyStr may be an
// http, https, socks5 or socks4 URL; cookie, when set, is sent to YouTube hosts.
func NewHTTPClient(proxyStr, cookie string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyStr != "" {
		proxyURL, err := url.Parse(proxyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy format: %w", err)
		}

		switch proxyURL.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(proxyURL)
		case "socks5", "socks4":
			// socks4 is registered with proxy.FromURL by the go-socks4 import.
			dialer, err := proxy.FromURL(proxyURL, &net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 10 * time.Second,
			})
			if err != nil {
				return nil, fmt.Errorf("%s dialer error: %w", proxyURL.Scheme, err)
			}
			transport.Proxy = nil
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			}
		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s", proxyURL.Scheme)
		}
	}

	var rt http.RoundTripper = transport
	if cookie != "" {
		rt = &cookieTransport{next: transport, cookie: cookie}
	}

	return &http.Client{Timeout: clientTimeout, Transport: rt}, nil
}

type cookieTransport struct {
	next   http.RoundTripper
	cookie string
}

func (t *cookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isYouTubeHost(req.URL.Hostname()) && req.Header.Get("Cookie") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Cookie", t.cookie)
	}
	return t.next.RoundTrip(req)
}

func isYouTubeHost(host string) bool {
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtu.be" || strings.HasSuffix(host, ".googlevideo.com")
}
