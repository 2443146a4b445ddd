package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudflare/cfworker/pkg/types"
	"github.com/cloudflare/cloudflare-go"
)

// ListRoutes lists the worker routes of a zone
func (c *Client) ListRoutes(ctx context.Context, zoneID string) ([]cloudflare.WorkerRoute, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("zones/%s/workers/routes", zoneID), nil)
	if err != nil {
		return nil, err
	}

	routes := []cloudflare.WorkerRoute{}
	if err := decodeResult(raw, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// CreateRoute routes pattern in a zone to a worker
func (c *Client) CreateRoute(ctx context.Context, zoneID, pattern, workerName string) (types.Object, error) {
	route := cloudflare.WorkerRoute{
		Pattern:    pattern,
		ScriptName: workerName,
	}

	raw, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("zones/%s/workers/routes", zoneID), route)
	if err != nil {
		return nil, err
	}

	result := types.Object{}
	if err := decodeResult(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListKVNamespaces lists the KV namespaces of the account
func (c *Client) ListKVNamespaces(ctx context.Context) ([]cloudflare.WorkersKVNamespace, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("accounts/%s/storage/kv/namespaces", c.accountID), nil)
	if err != nil {
		return nil, err
	}

	namespaces := []cloudflare.WorkersKVNamespace{}
	if err := decodeResult(raw, &namespaces); err != nil {
		return nil, err
	}
	return namespaces, nil
}

// CreateKVNamespace creates a KV namespace with the given title
func (c *Client) CreateKVNamespace(ctx context.Context, title string) (cloudflare.WorkersKVNamespace, error) {
	params := cloudflare.CreateWorkersKVNamespaceParams{Title: title}

	raw, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("accounts/%s/storage/kv/namespaces", c.accountID), params)
	if err != nil {
		return cloudflare.WorkersKVNamespace{}, err
	}

	var namespace cloudflare.WorkersKVNamespace
	if err := decodeResult(raw, &namespace); err != nil {
		return cloudflare.WorkersKVNamespace{}, err
	}
	return namespace, nil
}
