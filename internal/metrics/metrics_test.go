package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/v1/tables/:name", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/v1/tables/:name", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tables/co", nil))

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/v1/tables/:name", "404"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, 0.0, testutil.ToFloat64(HTTPRequestInFlight))
}

func TestMiddleware_Unmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "unmatched", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveFetch(t *testing.T) {
	okBefore := testutil.ToFloat64(HITRANFetchTotals.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(HITRANFetchTotals.WithLabelValues("error"))
	linesBefore := testutil.ToFloat64(HITRANLinesFetched)

	ObserveFetch(0.2, 120, nil)
	ObserveFetch(0.1, 0, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(HITRANFetchTotals.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(HITRANFetchTotals.WithLabelValues("error")))
	assert.Equal(t, linesBefore+120, testutil.ToFloat64(HITRANLinesFetched))
}
