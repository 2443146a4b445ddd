package deployer

import "fmt"

// DeploymentError is the error returned by every Deployer operation. Err
// holds the underlying failure when there is one.
type DeploymentError struct {
	Message string
	Err     error
}

func (e *DeploymentError) Error() string {
	return e.Message
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

func wrap(prefix string, err error) *DeploymentError {
	return &DeploymentError{
		Message: fmt.Sprintf("%s: %v", prefix, err),
		Err:     err,
	}
}

// ScriptNotFoundError is returned when the worker script does not exist
type ScriptNotFoundError struct {
	Path string
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("Script file not found: %s", e.Path)
}

// ScriptReadError is returned when the worker script cannot be read
type ScriptReadError struct {
	Path string
	Err  error
}

func (e *ScriptReadError) Error() string {
	return fmt.Sprintf("Failed to read script file: %v", e.Err)
}

func (e *ScriptReadError) Unwrap() error {
	return e.Err
}
