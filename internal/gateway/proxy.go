package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/superauth/internal/config"
	"github.com/xxxsen/superauth/internal/pkg/response"
)

type route struct {
	prefix string
	proxy  *httputil.ReverseProxy
}

// Proxy forwards requests to the upstream owning the longest matching path
// prefix.
type Proxy struct {
	routes []route
}

func NewProxy(configs []config.RouteConfig) (*Proxy, error) {
	routes := make([]route, 0, len(configs))
	for _, rc := range configs {
		target, err := url.Parse(rc.Upstream)
		if err != nil {
			return nil, err
		}
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logutil.GetLogger(r.Context()).Error("upstream request failed",
				zap.String("path", r.URL.Path), zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"success":false,"message":"upstream unavailable"}`))
		}
		routes = append(routes, route{prefix: rc.Prefix, proxy: proxy})
	}
	// longest prefix wins
	sort.Slice(routes, func(i, j int) bool {
		return len(routes[i].prefix) > len(routes[j].prefix)
	})
	return &Proxy{routes: routes}, nil
}

func (p *Proxy) Handle(c *gin.Context) {
	path := c.Request.URL.Path
	for _, r := range p.routes {
		if strings.HasPrefix(path, r.prefix) {
			r.proxy.ServeHTTP(c.Writer, c.Request)
			return
		}
	}
	response.Error(c, http.StatusNotFound, "no route")
}
