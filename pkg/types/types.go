package types

import (
	"github.com/cloudflare/cloudflare-go"
)

// Object is an opaque result payload returned by the Cloudflare API
type Object map[string]any

// WorkerSummary is one entry of the account's worker script list
type WorkerSummary struct {
	ID         string `json:"id"`
	ETag       string `json:"etag,omitempty"`
	Size       int    `json:"size,omitempty"`
	CreatedOn  string `json:"created_on,omitempty"`
	ModifiedOn string `json:"modified_on,omitempty"`
}

// KVNamespace is a KV namespace entry of the project config
type KVNamespace struct {
	Binding string `json:"binding"`
	ID      string `json:"id"`
}

// Triggers holds the scheduled triggers of the project config
type Triggers struct {
	Crons []string `json:"crons"`
}

// Binding represents a resource binding sent with a worker upload
type Binding struct {
	Type        cloudflare.WorkerBindingType
	Name        string
	Text        string // For plain_text
	NamespaceID string // For kv_namespace
}

// NewPlainTextBinding binds a plain text variable
func NewPlainTextBinding(name, text string) Binding {
	return Binding{
		Type: cloudflare.WorkerPlainTextBindingType,
		Name: name,
		Text: text,
	}
}

// NewKVNamespaceBinding binds a KV namespace
func NewKVNamespaceBinding(name, namespaceID string) Binding {
	return Binding{
		Type:        cloudflare.WorkerKvNamespaceBindingType,
		Name:        name,
		NamespaceID: namespaceID,
	}
}

// WorkerMetadata is the metadata part of a worker upload
type WorkerMetadata struct {
	MainModule        string    `json:"main_module"`
	CompatibilityDate string    `json:"compatibility_date"`
	Bindings          []Binding `json:"bindings,omitempty"`
}

// DeployStatusDryRun marks a deploy result that never reached the API
const DeployStatusDryRun = "dry_run"

// DeployResult describes the outcome of a deploy or dry run
type DeployResult struct {
	WorkerName string          `json:"worker_name"`
	ScriptSize int             `json:"script_size"`
	Metadata   *WorkerMetadata `json:"metadata,omitempty"`
	Status     string          `json:"status,omitempty"`
	Deployed   bool            `json:"deployed,omitempty"`
	Result     Object          `json:"result,omitempty"`
}

// DryRun reports whether the result came from a dry run
func (r *DeployResult) DryRun() bool {
	return r.Status == DeployStatusDryRun
}

// DeleteResult describes the outcome of a worker deletion
type DeleteResult struct {
	WorkerName string `json:"worker_name"`
	Deleted    bool   `json:"deleted"`
	Result     Object `json:"result,omitempty"`
}

// WorkerList is the account's worker list with its size
type WorkerList struct {
	Workers []WorkerSummary `json:"workers"`
	Count   int             `json:"count"`
}

// Options holds the command line options shared by the commands
type Options struct {
	ConfigPath string
	ScriptPath string
	Template   string
	ZoneID     string
	DryRun     bool
	Force      bool
	AutoYes    bool
	Verbose    bool
	Quiet      bool
}
