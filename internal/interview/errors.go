package interview

import "fmt"

// RemoteQueryError reports a failed read against the backend. The backend
// error is kept unchanged and is reachable through errors.Is / errors.As.
type RemoteQueryError struct {
	Op    string
	Table string
	Err   error
}

func (e *RemoteQueryError) Error() string {
	return fmt.Sprintf("%s: query on %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// RemoteWriteError reports a failed insert against the backend
type RemoteWriteError struct {
	Op    string
	Table string
	Err   error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s: write to %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// MalformedRecordError reports a backend row that is missing a required
// field or holds a value of the wrong type
type MalformedRecordError struct {
	Table  string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: field %q %s", e.Table, e.Field, e.Reason)
}
