package traffic

import (
	"strings"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
)

const (
	sep = defaults.Separator

	targetRequest = "GET /api/dipp.sf-express.com/info HTTP/1.1\nHost: dipp.sf-express.com\n\n"
	jsonResponse  = "HTTP/1.1 200 OK\nContent-Type: application/json\n\n{\"status\":\"ok\"}\n"
	htmlResponse  = "HTTP/1.1 200 OK\nContent-Type: text/html\n\n<html>{\"status\":\"ok\"}</html>\n"
	otherRequest  = "GET /other HTTP/1.1\nHost: cdn.example.net\n\n"
	burpBanner    = "10:39:37  https://dipp.sf-express.com:443  [10.0.0.8]\n"
)

// joinLog builds a capture log the way the proxy writes it.
func joinLog(entries ...string) string {
	return sep + "\n" + strings.Join(entries, sep) + "\n" + sep
}

func testConfig(keyword string) Config {
	cfg := DefaultConfig()
	cfg.URLKeyword = keyword
	return cfg
}
