package deployer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cloudflare/cfworker/internal/api"
	"github.com/cloudflare/cfworker/internal/config"
	"github.com/cloudflare/cfworker/pkg/types"
	"github.com/cloudflare/cloudflare-go"
)

// Client is the subset of the Cloudflare API the deployer drives
type Client interface {
	ListWorkers(ctx context.Context) ([]types.WorkerSummary, error)
	GetWorker(ctx context.Context, name string) (types.Object, error)
	UploadWorker(ctx context.Context, name string, script []byte, metadata *types.WorkerMetadata) (types.Object, error)
	DeleteWorker(ctx context.Context, name string) (types.Object, error)
	VerifyToken(ctx context.Context) (bool, error)
	ListRoutes(ctx context.Context, zoneID string) ([]cloudflare.WorkerRoute, error)
	CreateRoute(ctx context.Context, zoneID, pattern, workerName string) (types.Object, error)
	ListKVNamespaces(ctx context.Context) ([]cloudflare.WorkersKVNamespace, error)
	CreateKVNamespace(ctx context.Context, title string) (cloudflare.WorkersKVNamespace, error)
}

// Deployer sequences the project config and the worker script into API calls
type Deployer struct {
	cfg     *config.Config
	client  Client
	logger  *log.Logger
	apiOpts []api.Option
}

// Option configures a Deployer
type Option func(*Deployer)

// WithClient replaces the API client built from the config credentials
func WithClient(client Client) Option {
	return func(d *Deployer) {
		d.client = client
	}
}

// WithLogger sets the logger, also handed to the API client
func WithLogger(logger *log.Logger) Option {
	return func(d *Deployer) {
		d.logger = logger
	}
}

// WithAPIOptions passes options to the API client built from the config
func WithAPIOptions(opts ...api.Option) Option {
	return func(d *Deployer) {
		d.apiOpts = append(d.apiOpts, opts...)
	}
}

// New validates cfg and creates a deployer for it. An invalid config fails
// before any API client exists.
func New(cfg *config.Config, opts ...Option) (*Deployer, error) {
	d := &Deployer{
		cfg:    cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}

	if valid, errs := cfg.Validate(); !valid {
		lines := make([]string, 0, len(errs))
		for _, e := range errs {
			lines = append(lines, "  - "+e)
		}
		return nil, &DeploymentError{
			Message: "Invalid configuration:\n" + strings.Join(lines, "\n"),
		}
	}

	if d.client == nil {
		creds := cfg.Credentials()
		apiOpts := append([]api.Option{api.WithLogger(d.logger)}, d.apiOpts...)

		client, err := api.NewClient(creds.APIToken, creds.AccountID, apiOpts...)
		if err != nil {
			return nil, wrap("Failed to create API client", err)
		}
		d.client = client
	}

	return d, nil
}

// Config returns the project config the deployer works on
func (d *Deployer) Config() *config.Config {
	return d.cfg
}

// WorkerURL returns the workers.dev address of the worker
func (d *Deployer) WorkerURL() string {
	return fmt.Sprintf("https://%s.workers.dev", d.cfg.WorkerName)
}

// ReadScript reads the worker script. An empty path reads the configured main
// script; relative paths resolve against the config working directory.
func (d *Deployer) ReadScript(path string) ([]byte, error) {
	switch {
	case path == "":
		path = d.cfg.ScriptPath()
	case !filepath.IsAbs(path):
		path = filepath.Join(d.cfg.WorkDir(), path)
	}

	d.logger.Debug("reading script", "path", path)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		notFound := &ScriptNotFoundError{Path: path}
		return nil, &DeploymentError{Message: notFound.Error(), Err: notFound}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		readErr := &ScriptReadError{Path: path, Err: err}
		return nil, &DeploymentError{Message: readErr.Error(), Err: readErr}
	}

	return data, nil
}

// PrepareMetadata builds the upload metadata: one plain_text binding per var
// followed by one kv_namespace binding per namespace, in config order
func (d *Deployer) PrepareMetadata() types.WorkerMetadata {
	metadata := types.WorkerMetadata{
		MainModule:        d.cfg.Main(),
		CompatibilityDate: d.cfg.Compatibility(),
	}

	var bindings []types.Binding
	for _, v := range d.cfg.Vars {
		bindings = append(bindings, types.NewPlainTextBinding(v.Name, v.Value))
	}
	for _, kv := range d.cfg.KVNamespaces {
		bindings = append(bindings, types.NewKVNamespaceBinding(kv.Binding, kv.ID))
	}

	if len(bindings) > 0 {
		metadata.Bindings = bindings
	}

	return metadata
}

// Deploy uploads the worker script. With dryRun it stops after reading the
// script and building the metadata, without calling the API.
func (d *Deployer) Deploy(ctx context.Context, scriptPath string, dryRun bool) (*types.DeployResult, error) {
	workerName := d.cfg.WorkerName

	script, err := d.ReadScript(scriptPath)
	if err != nil {
		return nil, err
	}

	metadata := d.PrepareMetadata()

	if dryRun {
		d.logger.Debug("dry run, skipping upload", "worker", workerName, "bytes", len(script))
		return &types.DeployResult{
			WorkerName: workerName,
			ScriptSize: len(script),
			Metadata:   &metadata,
			Status:     types.DeployStatusDryRun,
		}, nil
	}

	d.logger.Debug("uploading worker", "worker", workerName, "bytes", len(script), "bindings", len(metadata.Bindings))

	result, err := d.client.UploadWorker(ctx, workerName, script, &metadata)
	if err != nil {
		return nil, wrap("Failed to deploy worker", err)
	}

	return &types.DeployResult{
		WorkerName: workerName,
		ScriptSize: len(script),
		Deployed:   true,
		Result:     result,
	}, nil
}

// Delete removes the deployed worker
func (d *Deployer) Delete(ctx context.Context) (*types.DeleteResult, error) {
	workerName := d.cfg.WorkerName

	result, err := d.client.DeleteWorker(ctx, workerName)
	if err != nil {
		return nil, wrap("Failed to delete worker", err)
	}

	return &types.DeleteResult{
		WorkerName: workerName,
		Deleted:    true,
		Result:     result,
	}, nil
}

// Info returns the details of the deployed worker
func (d *Deployer) Info(ctx context.Context) (types.Object, error) {
	result, err := d.client.GetWorker(ctx, d.cfg.WorkerName)
	if err != nil {
		return nil, wrap("Failed to get worker info", err)
	}
	return result, nil
}

// ListWorkers lists every worker of the account
func (d *Deployer) ListWorkers(ctx context.Context) (*types.WorkerList, error) {
	workers, err := d.client.ListWorkers(ctx)
	if err != nil {
		return nil, wrap("Failed to list workers", err)
	}

	return &types.WorkerList{
		Workers: workers,
		Count:   len(workers),
	}, nil
}

// VerifyConnection reports whether the API accepts the token. Any error,
// including transport failures, is wrapped.
func (d *Deployer) VerifyConnection(ctx context.Context) (bool, error) {
	ok, err := d.client.VerifyToken(ctx)
	if err != nil {
		return false, wrap("Failed to verify connection", err)
	}
	return ok, nil
}

// ListKVNamespaces lists the KV namespaces of the account
func (d *Deployer) ListKVNamespaces(ctx context.Context) ([]cloudflare.WorkersKVNamespace, error) {
	namespaces, err := d.client.ListKVNamespaces(ctx)
	if err != nil {
		return nil, wrap("Failed to list KV namespaces", err)
	}
	return namespaces, nil
}

// CreateKVNamespace creates a KV namespace. A non-empty binding also records
// the namespace in the config and saves it.
func (d *Deployer) CreateKVNamespace(ctx context.Context, title, binding string) (cloudflare.WorkersKVNamespace, error) {
	namespace, err := d.client.CreateKVNamespace(ctx, title)
	if err != nil {
		return cloudflare.WorkersKVNamespace{}, wrap("Failed to create KV namespace", err)
	}

	if binding == "" {
		return namespace, nil
	}

	d.cfg.KVNamespaces = append(d.cfg.KVNamespaces, types.KVNamespace{
		Binding: binding,
		ID:      namespace.ID,
	})
	if err := d.cfg.Save(); err != nil {
		return namespace, wrap("Failed to save config", err)
	}

	d.logger.Debug("bound namespace", "binding", binding, "id", namespace.ID)
	return namespace, nil
}

// ListRoutes lists the worker routes of a zone
func (d *Deployer) ListRoutes(ctx context.Context, zoneID string) ([]cloudflare.WorkerRoute, error) {
	if zoneID == "" {
		return nil, &DeploymentError{Message: "Zone ID is required"}
	}

	routes, err := d.client.ListRoutes(ctx, zoneID)
	if err != nil {
		return nil, wrap("Failed to list routes", err)
	}
	return routes, nil
}

// AddRoute routes pattern in a zone to the worker and records the pattern in
// the config routes
func (d *Deployer) AddRoute(ctx context.Context, zoneID, pattern string) (types.Object, error) {
	if zoneID == "" {
		return nil, &DeploymentError{Message: "Zone ID is required"}
	}

	result, err := d.client.CreateRoute(ctx, zoneID, pattern, d.cfg.WorkerName)
	if err != nil {
		return nil, wrap("Failed to add route", err)
	}

	for _, r := range d.cfg.Routes {
		if r == pattern {
			return result, nil
		}
	}

	d.cfg.Routes = append(d.cfg.Routes, pattern)
	if err := d.cfg.Save(); err != nil {
		return result, wrap("Failed to save config", err)
	}
	return result, nil
}
