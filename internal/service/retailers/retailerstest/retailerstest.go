// Package retailerstest serves canned retailer responses to adapter tests.
package retailerstest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers"
)

type Response struct {
	Status      int
	ContentType string
	Body        string
}

func HTML(body string) Response {
	return Response{Status: http.StatusOK, ContentType: "text/html; charset=utf-8", Body: body}
}

func JSON(body string) Response {
	return Response{Status: http.StatusOK, ContentType: "application/json", Body: body}
}

func Status(code int) Response {
	return Response{Status: code}
}

// Server answers by request URI (path plus raw query). Unknown URIs get 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Response
	requests []*http.Request
}

func NewServer(t *testing.T, routes map[string]Response) *Server {
	t.Helper()
	s := &Server{routes: routes}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	resp, ok := s.routes[r.URL.RequestURI()]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

// Set adds or replaces a route.
func (s *Server) Set(uri string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[uri] = resp
}

func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// Client is a fetch client without delays or retries.
func Client(opts ...fetch.Option) *fetch.Client {
	return fetch.New("test", append([]fetch.Option{fetch.WithSleep(retailers.NoSleep)}, opts...)...)
}

// Now is Wednesday 2024-07-17 10:00 in Berlin.
func Now() time.Time {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.FixedZone("CEST", 2*60*60)
	}
	return time.Date(2024, time.July, 17, 10, 0, 0, 0, loc)
}

func Unit(mt domain.MarketType, id string, kind domain.UnitKind) domain.WorkUnit {
	now := Now()
	return domain.WorkUnit{
		ID:         id,
		MarketType: mt,
		Kind:       kind,
		Window:     week.Current(now),
		LastUpdate: now,
	}
}

// Day is the given July 2024 day in the location of Now.
func Day(day int) time.Time {
	return time.Date(2024, time.July, day, 0, 0, 0, 0, Now().Location())
}
