package settings

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docuflow/docuflow/internal/cache"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/storage"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return nil
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.mu.Unlock()
	return nil
}

func newService(t *testing.T) (*Service, *repository.Memory, *mapCache, *storage.Memory) {
	t.Helper()
	mem := repository.NewMemory()
	c := newMapCache()
	blobs := storage.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repository.MemorySettings{Memory: mem}, c, blobs, log), mem, c, blobs
}

func TestGetCachesRow(t *testing.T) {
	svc, mem, c, _ := newService(t)
	ctx := context.Background()
	if err := mem.SaveSettings(ctx, &models.SuperAdminSetting{AppName: "DocuFlow"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st, err := svc.Get(ctx)
	if err != nil || st.AppName != "DocuFlow" {
		t.Fatalf("get = %+v, %v", st, err)
	}

	// A second read is served from the cache, not the row.
	if err := mem.SaveSettings(ctx, &models.SuperAdminSetting{AppName: "changed-behind-cache"}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	st, err = svc.Get(ctx)
	if err != nil || st.AppName != "DocuFlow" {
		t.Fatalf("cached get = %+v, %v", st, err)
	}
	if len(c.data) != 1 {
		t.Fatalf("cache entries = %d", len(c.data))
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, mem, c, _ := newService(t)
	ctx := context.Background()
	if err := mem.SaveSettings(ctx, &models.SuperAdminSetting{AppName: "DocuFlow"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Get(ctx); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	name := "DocuFlow 2"
	secret := "sk_test_123"
	st, err := svc.Update(ctx, UpdateInput{AppName: &name, StripeSecretKey: &secret})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if st.AppName != "DocuFlow 2" || st.StripeSecretKey != "sk_test_123" {
		t.Fatalf("updated = %+v", st)
	}
	if len(c.data) != 0 {
		t.Fatal("cache not invalidated on write")
	}

	st, err = svc.Get(ctx)
	if err != nil || st.AppName != "DocuFlow 2" {
		t.Fatalf("get after update = %+v, %v", st, err)
	}
}

func TestUploadLogo(t *testing.T) {
	svc, _, _, blobs := newService(t)
	ctx := context.Background()

	st, err := svc.UploadLogo(ctx, "logo.png", strings.NewReader("png"), 3, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(st.AppLogo, "logos/") || !strings.HasSuffix(st.AppLogo, "_logo.png") {
		t.Fatalf("logo key = %q", st.AppLogo)
	}
	if b, ok := blobs.Bytes(st.AppLogo); !ok || string(b) != "png" {
		t.Fatalf("logo blob = %q, %v", b, ok)
	}
}
