package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/resume"
	"github.com/ougirez/discounts/internal/pkg/utils"
	"github.com/ougirez/discounts/internal/service/discounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cret"

type fakeDiscounts struct {
	runs    []domain.MarketType
	runErr  error
	pending *resume.Pending
}

func (f *fakeDiscounts) Run(_ context.Context, mt domain.MarketType) (discounts.Report, error) {
	f.runs = append(f.runs, mt)
	if f.runErr != nil {
		return discounts.Report{}, f.runErr
	}
	return discounts.Report{MarketType: mt, Units: 3, Offers: 42, Done: true}, nil
}

func (f *fakeDiscounts) Pending(domain.MarketType) (*resume.Pending, bool, error) {
	return f.pending, f.pending != nil, nil
}

func token(t *testing.T) string {
	t.Helper()
	signed, err := utils.NewAuthToken(secret, time.Hour)
	require.NoError(t, err)
	return signed
}

func do(svc *APIService, method, target string, header map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var resp domain.ErrorResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	svc := NewAPIService(&fakeDiscounts{}, secret)

	rec := do(svc, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestRunRetrieval(t *testing.T) {
	fake := &fakeDiscounts{}
	svc := NewAPIService(fake, secret)

	rec := do(svc, http.MethodPost, "/api/v1/retrievals/penny", map[string]string{constants.HeaderAdminToken: token(t)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report discounts.Report
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.MarketTypePenny, report.MarketType)
	assert.Equal(t, 42, report.Offers)
	assert.Equal(t, []domain.MarketType{domain.MarketTypePenny}, fake.runs)
}

func TestRunRetrievalWithCookie(t *testing.T) {
	fake := &fakeDiscounts{}
	svc := NewAPIService(fake, secret)

	rec := do(svc, http.MethodPost, "/api/v1/retrievals/hit", nil, &http.Cookie{Name: constants.CookieKeySecretToken, Value: token(t)})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunRetrievalErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		target string
		header map[string]string
		runErr error
		code   int
	}{
		"no token":         {target: "/api/v1/retrievals/penny", code: http.StatusUnauthorized},
		"bad token":        {target: "/api/v1/retrievals/penny", header: map[string]string{constants.HeaderAdminToken: "nope"}, code: http.StatusUnauthorized},
		"unknown retailer": {target: "/api/v1/retrievals/lidl", code: http.StatusBadRequest},
		"already running":  {target: "/api/v1/retrievals/penny", runErr: fmt.Errorf("penny: %w", constants.ErrRunInProgress), code: http.StatusConflict},
		"run failed":       {target: "/api/v1/retrievals/penny", runErr: fmt.Errorf("prepare: %w", constants.ErrCredentials), code: http.StatusInternalServerError},
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewAPIService(&fakeDiscounts{runErr: tc.runErr}, secret)
			header := tc.header
			if header == nil && name != "no token" {
				header = map[string]string{constants.HeaderAdminToken: token(t)}
			}

			rec := do(svc, http.MethodPost, tc.target, header)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestGetPending(t *testing.T) {
	fake := &fakeDiscounts{}
	svc := NewAPIService(fake, secret)
	header := map[string]string{constants.HeaderAdminToken: token(t)}

	rec := do(svc, http.MethodGet, "/api/v1/retrievals/hit/pending", header)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	fake.pending = &resume.Pending{MarketType: domain.MarketTypeHit, Units: []domain.WorkUnit{{ID: "1002"}}}
	rec = do(svc, http.MethodGet, "/api/v1/retrievals/hit/pending", header)
	require.Equal(t, http.StatusOK, rec.Code)

	var p resume.Pending
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &p))
	require.Len(t, p.Units, 1)
	assert.Equal(t, "1002", p.Units[0].ID)
}

func TestUnknownRoute(t *testing.T) {
	svc := NewAPIService(&fakeDiscounts{}, secret)

	rec := do(svc, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decodeError(t, rec).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	svc := NewAPIService(&fakeDiscounts{}, secret)

	rec := do(svc, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
