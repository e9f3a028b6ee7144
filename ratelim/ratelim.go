package ratelim

import (
	"net"
	"net/http"
	"sync"
	"time"

	"gatepass/utils"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	mu      sync.Mutex
	clients = make(map[string]*client)
)

const (
	requestsPerSecond = 5
	burst             = 10
	staleAfter        = 3 * time.Minute
)

func init() {
	go func() {
		for range time.Tick(time.Minute) {
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > staleAfter {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()
}

func limiterFor(ip string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()
	c, ok := clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(requestsPerSecond, burst)}
		clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// RateLimit is a per-client-IP token bucket over the wrapped handler.
func RateLimit(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !limiterFor(ip).Allow() {
			utils.SendError(w, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}
		next(w, r, ps)
	}
}
