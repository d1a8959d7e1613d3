package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ignite/campaign-insights/internal/pkg/httputil"
)

const (
	statusUp         = "up"
	statusDown       = "down"
	statusDegraded   = "degraded"
	statusHealthy    = "healthy"
	statusUnhealthy  = "unhealthy"
	msgNotConfigured = "not configured"
	healthVersion    = "1.0.0"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"`
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// BucketHeader is the S3 call used to probe blob storage.
type BucketHeader interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// probe is one timed dependency ping. A nil ping means the dependency is not
// wired in this deployment.
type probe struct {
	name      string
	timeout   time.Duration
	slowAfter time.Duration
	ping      func(ctx context.Context) error
	okMessage string
}

// HealthChecker reports on the snapshot and every backing dependency
// (Postgres, Redis, S3).
type HealthChecker struct {
	snapshots Snapshots
	probes    []probe
	startTime time.Time
}

// NewHealthChecker creates a new HealthChecker. Any dependency can be nil.
func NewHealthChecker(snapshots Snapshots, db *sql.DB, redisClient *redis.Client, s3Client BucketHeader, s3Bucket string) *HealthChecker {
	dbProbe := probe{name: "database", timeout: 3 * time.Second, slowAfter: time.Second, okMessage: "connected"}
	if db != nil {
		dbProbe.ping = db.PingContext
	}

	redisProbe := probe{name: "redis", timeout: 2 * time.Second, slowAfter: 500 * time.Millisecond, okMessage: "connected"}
	if redisClient != nil {
		redisProbe.ping = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	s3Probe := probe{name: "s3", timeout: 3 * time.Second, okMessage: fmt.Sprintf("bucket %q accessible", s3Bucket)}
	if s3Client != nil && s3Bucket != "" {
		s3Probe.ping = func(ctx context.Context) error {
			_, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s3Bucket})
			return err
		}
	}

	return &HealthChecker{
		snapshots: snapshots,
		probes:    []probe{dbProbe, redisProbe, s3Probe},
		startTime: time.Now(),
	}
}

// HandleHealth always answers 200; /health/ready is the failing probe.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	httputil.OK(w, HealthStatus{
		Status:  overallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness always returns 200 while the process is running.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness returns 503 until a snapshot is loaded.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := overallStatus(checks)

	code := http.StatusOK
	if overall == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]any{
		"ready":  overall != statusUnhealthy,
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	checks := make(map[string]ComponentCheck, len(hc.probes)+1)
	checks["snapshot"] = hc.checkSnapshot()

	var mu sync.Mutex
	var g errgroup.Group
	for _, p := range hc.probes {
		p := p
		g.Go(func() error {
			c := p.run(ctx)
			mu.Lock()
			checks[p.name] = c
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return checks
}

func (p probe) run(ctx context.Context) ComponentCheck {
	if p.ping == nil {
		return ComponentCheck{Status: statusDown, Message: msgNotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.ping(ctx)
	latency := time.Since(start)

	switch {
	case err != nil:
		return ComponentCheck{Status: statusDown, Latency: latency.String(), Message: fmt.Sprintf("ping failed: %v", err)}
	case p.slowAfter > 0 && latency > p.slowAfter:
		return ComponentCheck{Status: statusDegraded, Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	default:
		return ComponentCheck{Status: statusUp, Latency: latency.String(), Message: p.okMessage}
	}
}

// checkSnapshot reports whether campaign data is loaded and whether the
// most recent refresh succeeded.
func (hc *HealthChecker) checkSnapshot() ComponentCheck {
	if hc.snapshots == nil {
		return ComponentCheck{Status: statusDown, Message: msgNotConfigured}
	}
	snap, err := hc.snapshots.Snapshot()
	if err != nil {
		return ComponentCheck{Status: statusDown, Message: "no snapshot loaded"}
	}

	age := time.Since(snap.FetchedAt).Round(time.Second)
	msg := fmt.Sprintf("generation %d, %d campaigns, age %s", snap.Generation, len(snap.Campaigns), age)

	if le, ok := hc.snapshots.(interface{ LastError() error }); ok {
		if err := le.LastError(); err != nil {
			return ComponentCheck{Status: statusDegraded, Message: msg + "; last refresh failed: " + err.Error()}
		}
	}
	return ComponentCheck{Status: statusUp, Message: msg}
}

// overallStatus is unhealthy without a snapshot, degraded when any check is
// degraded or a configured dependency is down, healthy otherwise.
func overallStatus(checks map[string]ComponentCheck) string {
	if checks["snapshot"].Status == statusDown {
		return statusUnhealthy
	}
	for _, c := range checks {
		if c.Status == statusDegraded || (c.Status == statusDown && c.Message != msgNotConfigured) {
			return statusDegraded
		}
	}
	return statusHealthy
}

// formatUptime renders "3d 4h 12m 5s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	days, rem := total/86400, total%86400
	hours, rem := rem/3600, rem%3600
	minutes, seconds := rem/60, rem%60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
