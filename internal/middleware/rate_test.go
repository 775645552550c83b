package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestLimiterBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/poll", Limiter(rate.Limit(1), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/poll", nil)
		r.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestEvictStale(t *testing.T) {
	now := time.Now()
	clients := map[string]*clientLimiter{
		"1.1.1.1": {limiter: rate.NewLimiter(1, 1), lastSeen: now},
		"2.2.2.2": {limiter: rate.NewLimiter(1, 1), lastSeen: now.Add(-time.Hour)},
	}

	evictStale(clients, now, 10*time.Minute)

	assert.Len(t, clients, 1)
	assert.Contains(t, clients, "1.1.1.1")
}
