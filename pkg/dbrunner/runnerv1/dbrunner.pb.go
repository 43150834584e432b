// Package runnerv1 contains the message and service definitions for the
// dbrunner.v1 query execution service, transported over gRPC with the
// shared JSON codec.
package runnerv1

// RunQueryRequest submits a query for execution against a sandbox
// initialized with the given schema setup script.
type RunQueryRequest struct {
	Schema string `json:"schema,omitempty"`
	Query  string `json:"query,omitempty"`
}

// RunQueryResponse carries exactly one of Id or Error. Id references a
// successfully started execution; Error is the runtime failure message of
// a query that was accepted but failed to execute.
type RunQueryResponse struct {
	Id    *string `json:"id,omitempty"`
	Error *string `json:"error,omitempty"`
}

// RetrieveQueryRequest asks for the result rows of a prior execution.
type RetrieveQueryRequest struct {
	Id string `json:"id,omitempty"`
}

// RetrieveQueryResponse is one message of the result stream, carrying
// exactly one of Header or Row. The stream delivers a single header
// followed by zero or more rows.
type RetrieveQueryResponse struct {
	Header *RowHeader `json:"header,omitempty"`
	Row    *DataRow   `json:"row,omitempty"`
}

// RowHeader names the result columns.
type RowHeader struct {
	Cells []string `json:"cells,omitempty"`
}

// DataRow is one result row. Cells align positionally with the header.
type DataRow struct {
	Cells []*Cell `json:"cells,omitempty"`
}

// Cell is a single result value. A nil Value is SQL NULL.
type Cell struct {
	Value *string `json:"value,omitempty"`
}

// AreQueriesOutputSameRequest asks whether two prior executions produced
// equivalent result sets.
type AreQueriesOutputSameRequest struct {
	LeftId  string `json:"left_id,omitempty"`
	RightId string `json:"right_id,omitempty"`
}

// AreQueriesOutputSameResponse reports the equivalence verdict.
type AreQueriesOutputSameResponse struct {
	Same bool `json:"same,omitempty"`
}
