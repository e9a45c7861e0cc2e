package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/models"
)

const TenantContextKey contextKey = "tenant"

// tenantCacheTTL bounds how stale a cached tenant record may get. Strategy
// changes on a tenant take effect within this window.
const tenantCacheTTL = 60 * time.Second

type cachedTenant struct {
	tenant    *models.Tenant
	fetchedAt time.Time
}

// TenantResolver resolves the tenant for a request from the X-Tenant-ID
// header, falling back to the host subdomain. Lookups are cached because
// every sync call passes through here.
type TenantResolver struct {
	db    *database.DB
	mu    sync.RWMutex
	cache map[string]cachedTenant
}

// NewTenantResolver creates a tenant resolver backed by the database
func NewTenantResolver(db *database.DB) *TenantResolver {
	return &TenantResolver{
		db:    db,
		cache: make(map[string]cachedTenant),
	}
}

// Middleware attaches the resolved tenant to the request context
func (tr *TenantResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Tenant-ID")
		bySubdomain := false
		if key == "" {
			key = subdomainOf(r.Host)
			bySubdomain = true
		}
		if key == "" {
			http.Error(w, "Tenant not specified", http.StatusBadRequest)
			return
		}

		tenant, err := tr.lookup(key, bySubdomain)
		if err != nil {
			http.Error(w, "Unknown tenant", http.StatusNotFound)
			return
		}
		if !tenant.IsActive {
			http.Error(w, "Tenant is disabled", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), TenantContextKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (tr *TenantResolver) lookup(key string, bySubdomain bool) (*models.Tenant, error) {
	tr.mu.RLock()
	entry, ok := tr.cache[key]
	tr.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < tenantCacheTTL {
		return entry.tenant, nil
	}

	var tenant models.Tenant
	q := tr.db.Where("id = ?", key)
	if bySubdomain {
		q = tr.db.Where("subdomain = ?", key)
	}
	if err := q.First(&tenant).Error; err != nil {
		return nil, err
	}

	tr.mu.Lock()
	tr.cache[key] = cachedTenant{tenant: &tenant, fetchedAt: time.Now()}
	tr.mu.Unlock()

	return &tenant, nil
}

// Invalidate drops a cached tenant, e.g. after its strategy was changed
func (tr *TenantResolver) Invalidate(key string) {
	tr.mu.Lock()
	delete(tr.cache, key)
	tr.mu.Unlock()
}

// TenantFromContext returns the tenant attached by the middleware
func TenantFromContext(ctx context.Context) (*models.Tenant, bool) {
	tenant, ok := ctx.Value(TenantContextKey).(*models.Tenant)
	return tenant, ok
}

// subdomainOf extracts the first label of a multi-label host
func subdomainOf(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}
