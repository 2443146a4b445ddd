package deployer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cloudflare/cfworker/internal/api"
	"github.com/cloudflare/cfworker/internal/config"
	"github.com/cloudflare/cfworker/pkg/types"
	"github.com/cloudflare/cloudflare-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScript = "export default { fetch() { return new Response('héllo') } }"

type fakeClient struct {
	uploads      int
	uploadedName string
	uploadedBody []byte
	uploadedMeta *types.WorkerMetadata
	deleted      []string
	workers      []types.WorkerSummary
	verify       bool
	routes       []cloudflare.WorkerRoute
	createdRoute string
	namespace    cloudflare.WorkersKVNamespace
	err          error
}

func (f *fakeClient) ListWorkers(context.Context) ([]types.WorkerSummary, error) {
	return f.workers, f.err
}

func (f *fakeClient) GetWorker(_ context.Context, name string) (types.Object, error) {
	if f.err != nil {
		return nil, f.err
	}
	return types.Object{"id": name}, nil
}

func (f *fakeClient) UploadWorker(_ context.Context, name string, script []byte, metadata *types.WorkerMetadata) (types.Object, error) {
	f.uploads++
	f.uploadedName = name
	f.uploadedBody = script
	f.uploadedMeta = metadata
	if f.err != nil {
		return nil, f.err
	}
	return types.Object{"id": name}, nil
}

func (f *fakeClient) DeleteWorker(_ context.Context, name string) (types.Object, error) {
	f.deleted = append(f.deleted, name)
	if f.err != nil {
		return nil, f.err
	}
	return types.Object{}, nil
}

func (f *fakeClient) VerifyToken(context.Context) (bool, error) {
	return f.verify, f.err
}

func (f *fakeClient) ListRoutes(context.Context, string) ([]cloudflare.WorkerRoute, error) {
	return f.routes, f.err
}

func (f *fakeClient) CreateRoute(_ context.Context, _, pattern, workerName string) (types.Object, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.createdRoute = pattern
	return types.Object{"pattern": pattern, "script": workerName}, nil
}

func (f *fakeClient) ListKVNamespaces(context.Context) ([]cloudflare.WorkersKVNamespace, error) {
	return nil, f.err
}

func (f *fakeClient) CreateKVNamespace(_ context.Context, title string) (cloudflare.WorkersKVNamespace, error) {
	if f.err != nil {
		return cloudflare.WorkersKVNamespace{}, f.err
	}
	return f.namespace, nil
}

func credentials(accountID, token string) config.Env {
	return config.MapEnv(map[string]string{
		config.AccountIDEnv: accountID,
		config.APITokenEnv:  token,
	})
}

// setupProject writes a config and worker.js into a temp dir
func setupProject(t *testing.T, env config.Env) *config.Config {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "worker.js"), []byte(testScript), 0o644))

	cfg, err := config.CreateDefault("my-worker", filepath.Join(dir, config.DefaultPath),
		config.WithEnv(env), config.WithWorkDir(dir))
	require.NoError(t, err)
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New(filepath.Join(dir, config.DefaultPath),
		config.WithEnv(credentials("", "")), config.WithWorkDir(dir))

	client := &fakeClient{}
	d, err := New(cfg, WithClient(client))
	require.Error(t, err)
	assert.Nil(t, d)

	var deployErr *DeploymentError
	require.ErrorAs(t, err, &deployErr)
	assert.Equal(t, "Invalid configuration:\n"+
		"  - CLOUDFLARE_ACCOUNT_ID not set in environment\n"+
		"  - CLOUDFLARE_API_TOKEN not set in environment\n"+
		"  - worker_name not set in config\n"+
		"  - Main script not found: worker.js", err.Error())
	assert.Zero(t, client.uploads)
}

func TestNewBuildsClientFromCredentials(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))

	d, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &api.Client{}, d.client)
	assert.Equal(t, "https://my-worker.workers.dev", d.WorkerURL())
}

func TestPrepareMetadata(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	cfg.CompatibilityDate = "2024-06-01"
	cfg.Vars.Set("ENV", "prod")
	cfg.Vars.Set("REGION", "eu")
	cfg.KVNamespaces = []types.KVNamespace{{Binding: "CACHE", ID: "ns1"}}

	d, err := New(cfg, WithClient(&fakeClient{}))
	require.NoError(t, err)

	metadata := d.PrepareMetadata()
	assert.Equal(t, "worker.js", metadata.MainModule)
	assert.Equal(t, "2024-06-01", metadata.CompatibilityDate)
	assert.Equal(t, []types.Binding{
		types.NewPlainTextBinding("ENV", "prod"),
		types.NewPlainTextBinding("REGION", "eu"),
		types.NewKVNamespaceBinding("CACHE", "ns1"),
	}, metadata.Bindings)
}

func TestPrepareMetadataWithoutBindings(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))

	d, err := New(cfg, WithClient(&fakeClient{}))
	require.NoError(t, err)

	assert.Nil(t, d.PrepareMetadata().Bindings)
}

func TestDeployDryRun(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	client := &fakeClient{}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	result, err := d.Deploy(context.Background(), "", true)
	require.NoError(t, err)

	assert.True(t, result.DryRun())
	assert.False(t, result.Deployed)
	assert.Equal(t, "my-worker", result.WorkerName)
	assert.Equal(t, len([]byte(testScript)), result.ScriptSize)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "worker.js", result.Metadata.MainModule)
	assert.Zero(t, client.uploads)
}

func TestDeployDryRunMakesNoRequests(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := setupProject(t, credentials("acct", "token"))
	d, err := New(cfg, WithAPIOptions(api.WithBaseURL(server.URL)))
	require.NoError(t, err)

	_, err = d.Deploy(context.Background(), "", true)
	require.NoError(t, err)
	assert.Zero(t, hits.Load())
}

func TestDeploy(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	cfg.Vars.Set("ENV", "prod")
	client := &fakeClient{}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	result, err := d.Deploy(context.Background(), "", false)
	require.NoError(t, err)

	assert.True(t, result.Deployed)
	assert.False(t, result.DryRun())
	assert.Equal(t, types.Object{"id": "my-worker"}, result.Result)
	assert.Equal(t, len([]byte(testScript)), result.ScriptSize)

	assert.Equal(t, 1, client.uploads)
	assert.Equal(t, "my-worker", client.uploadedName)
	assert.Equal(t, []byte(testScript), client.uploadedBody)
	require.NotNil(t, client.uploadedMeta)
	assert.Len(t, client.uploadedMeta.Bindings, 1)
}

func TestDeployExplicitScript(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	other := filepath.Join(cfg.WorkDir(), "other.js")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	client := &fakeClient{}
	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	result, err := d.Deploy(context.Background(), "other.js", false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScriptSize)
	assert.Equal(t, []byte("x"), client.uploadedBody)
}

func TestDeployScriptNotFound(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	client := &fakeClient{}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	missing := filepath.Join(cfg.WorkDir(), "missing.js")
	_, err = d.Deploy(context.Background(), missing, false)
	require.Error(t, err)

	var deployErr *DeploymentError
	require.ErrorAs(t, err, &deployErr)
	assert.Equal(t, "Script file not found: "+missing, err.Error())

	var notFound *ScriptNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.Path)
	assert.Zero(t, client.uploads)
}

func TestDeployScriptIsDirectory(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	require.NoError(t, os.Mkdir(filepath.Join(cfg.WorkDir(), "src"), 0o755))

	d, err := New(cfg, WithClient(&fakeClient{}))
	require.NoError(t, err)

	_, err = d.Deploy(context.Background(), "src", true)
	var readErr *ScriptReadError
	require.ErrorAs(t, err, &readErr)
}

func TestOperationErrorsAreWrapped(t *testing.T) {
	apiErr := &api.APIError{Message: "Invalid token", StatusCode: http.StatusForbidden}

	cfg := setupProject(t, credentials("acct", "token"))
	d, err := New(cfg, WithClient(&fakeClient{err: apiErr}))
	require.NoError(t, err)

	ctx := context.Background()

	_, deployErr := d.Deploy(ctx, "", false)
	_, deleteErr := d.Delete(ctx)
	_, infoErr := d.Info(ctx)
	_, listErr := d.ListWorkers(ctx)
	_, verifyErr := d.VerifyConnection(ctx)

	tests := []struct {
		name   string
		err    error
		prefix string
	}{
		{"deploy", deployErr, "Failed to deploy worker: "},
		{"delete", deleteErr, "Failed to delete worker: "},
		{"info", infoErr, "Failed to get worker info: "},
		{"list", listErr, "Failed to list workers: "},
		{"verify", verifyErr, "Failed to verify connection: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Equal(t, tt.prefix+"API request failed: Invalid token", tt.err.Error())

			var deployErr *DeploymentError
			assert.ErrorAs(t, tt.err, &deployErr)

			var cause *api.APIError
			require.ErrorAs(t, tt.err, &cause)
			assert.Equal(t, http.StatusForbidden, cause.StatusCode)
		})
	}
}

func TestDelete(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	client := &fakeClient{}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	result, err := d.Delete(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Equal(t, "my-worker", result.WorkerName)
	assert.Equal(t, []string{"my-worker"}, client.deleted)
}

func TestInfo(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))

	d, err := New(cfg, WithClient(&fakeClient{}))
	require.NoError(t, err)

	info, err := d.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my-worker", info["id"])
}

func TestListWorkers(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	client := &fakeClient{workers: []types.WorkerSummary{{ID: "a"}, {ID: "b"}}}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	list, err := d.ListWorkers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "b", list.Workers[1].ID)
}

func TestVerifyConnection(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))

	d, err := New(cfg, WithClient(&fakeClient{verify: true}))
	require.NoError(t, err)
	ok, err := d.VerifyConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	d, err = New(cfg, WithClient(&fakeClient{verify: false}))
	require.NoError(t, err)
	ok, err = d.VerifyConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyConnectionTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := setupProject(t, credentials("acct", "token"))
	d, err := New(cfg, WithAPIOptions(api.WithBaseURL(url)))
	require.NoError(t, err)

	ok, err := d.VerifyConnection(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "Failed to verify connection: ")

	var apiErr *api.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestCreateKVNamespaceBinds(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	client := &fakeClient{namespace: cloudflare.WorkersKVNamespace{ID: "ns-new", Title: "cache"}}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	namespace, err := d.CreateKVNamespace(context.Background(), "cache", "CACHE")
	require.NoError(t, err)
	assert.Equal(t, "ns-new", namespace.ID)

	reloaded, err := config.Load(cfg.Path(), config.WithWorkDir(cfg.WorkDir()))
	require.NoError(t, err)
	assert.Equal(t, []types.KVNamespace{{Binding: "CACHE", ID: "ns-new"}}, reloaded.KVNamespaces)
}

func TestCreateKVNamespaceWithoutBinding(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	client := &fakeClient{namespace: cloudflare.WorkersKVNamespace{ID: "ns-new"}}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	_, err = d.CreateKVNamespace(context.Background(), "cache", "")
	require.NoError(t, err)
	assert.Empty(t, cfg.KVNamespaces)
}

func TestAddRoute(t *testing.T) {
	cfg := setupProject(t, credentials("acct", "token"))
	client := &fakeClient{}

	d, err := New(cfg, WithClient(client))
	require.NoError(t, err)

	_, err = d.AddRoute(context.Background(), "zone", "example.com/*")
	require.NoError(t, err)
	_, err = d.AddRoute(context.Background(), "zone", "example.com/*")
	require.NoError(t, err)

	assert.Equal(t, "example.com/*", client.createdRoute)
	assert.Equal(t, []string{"example.com/*"}, cfg.Routes)

	_, err = d.AddRoute(context.Background(), "", "example.com/*")
	assert.EqualError(t, err, "Zone ID is required")
}
