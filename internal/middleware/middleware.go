package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"kitchensync/internal/config"
	"kitchensync/internal/kitchen"
	"kitchensync/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientTracker struct {
	errors404    []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

// limiterSet hands out one token bucket per client IP.
type limiterSet struct {
	mu      sync.Mutex
	clients map[string]*rateLimiter
	every   time.Duration
	burst   int
	idle    time.Duration
}

func newLimiterSet(every time.Duration, burst int, idle time.Duration) *limiterSet {
	return &limiterSet{
		clients: make(map[string]*rateLimiter),
		every:   every,
		burst:   burst,
		idle:    idle,
	}
}

func (s *limiterSet) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for clientIP, client := range s.clients {
		if now.Sub(client.lastSeen) > s.idle {
			delete(s.clients, clientIP)
		}
	}

	client, exists := s.clients[ip]
	if !exists {
		client = &rateLimiter{limiter: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.Allow()
}

func RateLimit(cfg *config.Config) gin.HandlerFunc {
	clients := newLimiterSet(time.Second/20, 20, 10*time.Minute)

	return func(c *gin.Context) {
		// Skip rate limiting in development mode
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		if !clients.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthRateLimit throttles login and signup attempts. Only submissions count.
func AuthRateLimit(cfg *config.Config) gin.HandlerFunc {
	clients := newLimiterSet(time.Minute, 5, 30*time.Minute)

	return func(c *gin.Context) {
		if cfg.IsDevelopment() || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		if !clients.allow(c.ClientIP()) {
			logger.Warn("Authentication rate limit exceeded", "ip", c.ClientIP())
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Authentication rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// NotFoundGuard blocks clients that keep hitting unknown routes: ten 404s
// within five minutes block the IP for fifteen minutes.
func NotFoundGuard(cfg *config.Config) gin.HandlerFunc {
	trackers := make(map[string]*clientTracker)
	var mu sync.Mutex

	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		ip := c.ClientIP()

		mu.Lock()
		tracker, exists := trackers[ip]
		blocked := exists && time.Now().Before(tracker.blockedUntil)
		mu.Unlock()

		if blocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "Too many invalid requests, try again later"})
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() != http.StatusNotFound {
			return
		}

		now := time.Now()

		mu.Lock()
		defer mu.Unlock()

		tracker, exists = trackers[ip]
		if !exists {
			tracker = &clientTracker{}
			trackers[ip] = tracker
		}
		tracker.lastSeen = now

		cutoff := now.Add(-5 * time.Minute)
		recent := make([]time.Time, 0, len(tracker.errors404)+1)
		for _, at := range tracker.errors404 {
			if at.After(cutoff) {
				recent = append(recent, at)
			}
		}
		tracker.errors404 = append(recent, now)

		if len(tracker.errors404) >= 10 {
			tracker.blockedUntil = now.Add(15 * time.Minute)
			tracker.errors404 = nil
			logger.Warn("Blocked client after repeated 404s", "ip", ip)
		}

		for trackerIP, t := range trackers {
			if now.Sub(t.lastSeen) > 30*time.Minute && now.After(t.blockedUntil) {
				delete(trackers, trackerIP)
			}
		}
	}
}

func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		for _, allowedOrigin := range origins {
			if origin != "" && origin == allowedOrigin {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Vary", "Origin")
				break
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SecurityHeaders(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		if !cfg.IsDevelopment() {
			c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}
		c.Next()
	}
}

func LogRequests() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s %s\n",
			param.TimeStamp.Format("2006/01/02 15:04:05"),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			param.ClientIP,
		)
	})
}

// WithKitchen makes k available to handlers under "kitchen".
func WithKitchen(k *kitchen.Kitchen) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("kitchen", k)
		c.Next()
	}
}

// AuthRequired redirects to /login when nobody is signed in.
func AuthRequired(k *kitchen.Kitchen) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := k.Identity().Current()
		if user == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// GuestOnly redirects signed-in users away from the login and signup pages.
func GuestOnly(k *kitchen.Kitchen) gin.HandlerFunc {
	return func(c *gin.Context) {
		if k.Identity().IsAuthenticated() {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthOptional exposes the current user, if any, without enforcing login.
func AuthOptional(k *kitchen.Kitchen) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := k.Identity().Current(); user != nil {
			c.Set("user", user)
			c.Set("user_id", user.ID)
		}
		c.Next()
	}
}

// TrimSpaces trims form values. Password fields are left alone.
func TrimSpaces() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			if strings.HasPrefix(c.ContentType(), "application/x-www-form-urlencoded") {
				_ = c.Request.ParseForm()
				for key, values := range c.Request.PostForm {
					if strings.Contains(key, "password") {
						continue
					}
					for i, value := range values {
						c.Request.PostForm[key][i] = strings.TrimSpace(value)
					}
				}
			}
		}
		c.Next()
	}
}
