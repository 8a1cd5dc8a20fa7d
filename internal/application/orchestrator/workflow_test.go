package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWorkflow_Import(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "secrets.yaml", "secrets:\n  - name: cf_token\n    value: abc\n")
	writeConfig(t, dir, "providers.yaml", `providers:
  - id: cf
    name: Cloudflare
    type: cloudflare
    role: source
    credentials:
      api_token: {secret: cf_token}
  - id: ali
    name: Aliyun
    type: aliyun
    role: target
    sources: [cf]
`)
	writeConfig(t, dir, "options.yaml", "syncOptions:\n  overwriteAll: true\n  deleteExtra: true\n")

	store := &memStore{providers: []entity.ProviderConfig{
		{ID: "ali", Name: "Old name", VendorType: entity.VendorAliyun, Role: entity.RoleSource},
		{ID: "keep", Name: "Keep", VendorType: entity.VendorDNSPod, Role: entity.RoleSource},
	}}
	w := NewWorkflow(&WorkflowConfig{ConfigDir: dir, Store: store})

	res, err := w.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Added != 1 || res.Updated != 1 || !res.SyncOptions {
		t.Errorf("result = %+v", res)
	}
	if len(store.providers) != 3 {
		t.Fatalf("providers = %+v", store.providers)
	}
	if store.providers[0].Name != "Aliyun" || store.providers[1].ID != "keep" {
		t.Errorf("providers = %+v", store.providers)
	}
	if store.opts != (valueobject.SyncOptions{OverwriteAll: true, DeleteExtra: true}) {
		t.Errorf("opts = %+v", store.opts)
	}
}

func TestWorkflow_MissingConfigDir(t *testing.T) {
	store := &memStore{}
	w := NewWorkflow(&WorkflowConfig{ConfigDir: filepath.Join(t.TempDir(), "missing"), Store: store})

	b, err := w.LoadBundle(context.Background())
	if err != nil {
		t.Fatalf("LoadBundle() error = %v", err)
	}
	if len(b.Secrets) != 0 || len(b.Providers) != 0 {
		t.Errorf("bundle = %+v", b)
	}
	if _, err := w.Orchestrator(context.Background()); err != nil {
		t.Errorf("Orchestrator() error = %v", err)
	}
}

func TestWorkflow_InvalidBundle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "providers.yaml", `providers:
  - id: ali
    name: Aliyun
    type: aliyun
    role: target
    sources: [ghost]
`)
	w := NewWorkflow(&WorkflowConfig{ConfigDir: dir, Store: &memStore{}})
	if _, err := w.Import(context.Background()); err == nil {
		t.Error("expected validation error for unknown source")
	}
}
