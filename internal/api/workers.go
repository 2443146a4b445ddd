package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/cloudflare/cfworker/pkg/types"
	"github.com/cloudflare/cloudflare-go"
	json "github.com/goccy/go-json"
)

const (
	// ScriptContentType marks the uploaded script as an ES module
	ScriptContentType = "application/javascript+module"

	// DefaultScriptPart names the script part when no metadata is sent
	DefaultScriptPart = "worker.js"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) scriptEndpoint(name string) string {
	return fmt.Sprintf("accounts/%s/workers/scripts/%s", c.accountID, url.PathEscape(name))
}

// ListWorkers lists all worker scripts in the account
func (c *Client) ListWorkers(ctx context.Context) ([]types.WorkerSummary, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("accounts/%s/workers/scripts", c.accountID), nil)
	if err != nil {
		return nil, err
	}

	workers := []types.WorkerSummary{}
	if err := decodeResult(raw, &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

// GetWorker retrieves details about a specific worker
func (c *Client) GetWorker(ctx context.Context, name string) (types.Object, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, c.scriptEndpoint(name), nil)
	if err != nil {
		return nil, err
	}

	result := types.Object{}
	if err := decodeResult(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UploadWorker creates or replaces a worker script. The script is sent as a
// module part named after the main module, followed by the metadata part
// when metadata is given.
func (c *Client) UploadWorker(ctx context.Context, name string, script []byte, metadata *types.WorkerMetadata) (types.Object, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	partName := DefaultScriptPart
	if metadata != nil && metadata.MainModule != "" {
		partName = metadata.MainModule
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(partName), quoteEscaper.Replace(partName)))
	header.Set("Content-Type", ScriptContentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create script part: %w", err)
	}
	if _, err := part.Write(script); err != nil {
		return nil, fmt.Errorf("failed to write script part: %w", err)
	}

	if metadata != nil {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		if err := mw.WriteField("metadata", string(encoded)); err != nil {
			return nil, fmt.Errorf("failed to write metadata part: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload body: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPut, c.scriptEndpoint(name), &body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	result := types.Object{}
	if err := decodeResult(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteWorker deletes a worker script. The result is usually empty.
func (c *Client) DeleteWorker(ctx context.Context, name string) (types.Object, error) {
	raw, err := c.doJSON(ctx, http.MethodDelete, c.scriptEndpoint(name), nil)
	if err != nil {
		return nil, err
	}

	result := types.Object{}
	if err := decodeResult(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// VerifyToken reports whether the API token is accepted. A failure reported
// by the API maps to false; transport failures are returned as errors.
func (c *Client) VerifyToken(ctx context.Context) (bool, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, "user/tokens/verify", nil)
	if err != nil {
		var apiErr *APIError
		var invalid *InvalidResponseError
		if errors.As(err, &apiErr) || errors.As(err, &invalid) {
			c.logger.Debug("token rejected", "err", err)
			return false, nil
		}
		return false, err
	}

	var body cloudflare.APITokenVerifyBody
	if err := decodeResult(raw, &body); err == nil {
		c.logger.Debug("token verified", "id", body.ID, "status", body.Status)
	}

	return true, nil
}

// GetAccount retrieves the account the client is scoped to
func (c *Client) GetAccount(ctx context.Context) (types.Object, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("accounts/%s", c.accountID), nil)
	if err != nil {
		return nil, err
	}

	result := types.Object{}
	if err := decodeResult(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}
