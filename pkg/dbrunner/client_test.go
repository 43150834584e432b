package dbrunner_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sqlground/sqlground-core/pkg/dbrunner"
	"github.com/sqlground/sqlground-core/pkg/dbrunner/runnerv1"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// fakeRunner is a scriptable in-process execution service.
type fakeRunner struct {
	runnerv1.UnimplementedDbRunnerServiceServer

	runQuery      func(context.Context, *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error)
	retrieveQuery func(*runnerv1.RetrieveQueryRequest, runnerv1.DbRunnerService_RetrieveQueryServer) error
	outputSame    func(context.Context, *runnerv1.AreQueriesOutputSameRequest) (*runnerv1.AreQueriesOutputSameResponse, error)
}

func (f *fakeRunner) RunQuery(ctx context.Context, req *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error) {
	return f.runQuery(ctx, req)
}

func (f *fakeRunner) RetrieveQuery(req *runnerv1.RetrieveQueryRequest, stream runnerv1.DbRunnerService_RetrieveQueryServer) error {
	return f.retrieveQuery(req, stream)
}

func (f *fakeRunner) AreQueriesOutputSame(ctx context.Context, req *runnerv1.AreQueriesOutputSameRequest) (*runnerv1.AreQueriesOutputSameResponse, error) {
	return f.outputSame(ctx, req)
}

// newTestClient serves fake over a loopback listener and returns a Client
// dialed against it.
func newTestClient(t *testing.T, fake *fakeRunner) *dbrunner.Client {
	t.Helper()

	dbrunner.EnsureGRPCJSONCodec()
	grpcServer := grpc.NewServer()
	runnerv1.RegisterDbRunnerServiceServer(grpcServer, fake)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		grpcServer.GracefulStop()
		_ = ln.Close()
	})
	go func() {
		_ = grpcServer.Serve(ln)
	}()

	client, err := dbrunner.NewClient(dbrunner.Config{Addr: "grpc://" + ln.Addr().String()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func strPtr(s string) *string { return &s }

func TestClient_Execute_Success(t *testing.T) {
	fake := &fakeRunner{
		runQuery: func(_ context.Context, req *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error) {
			assert.Equal(t, "CREATE TABLE products (id INT)", req.Schema)
			assert.Equal(t, "SELECT * FROM products", req.Query)
			return &runnerv1.RunQueryResponse{Id: strPtr("handle-1")}, nil
		},
	}
	client := newTestClient(t, fake)

	outcome, err := client.Execute(context.Background(), "CREATE TABLE products (id INT)", "SELECT * FROM products")
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "handle-1", outcome.Handle)
	assert.Empty(t, outcome.RuntimeError)
}

func TestClient_Execute_RuntimeFailure(t *testing.T) {
	fake := &fakeRunner{
		runQuery: func(context.Context, *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error) {
			return &runnerv1.RunQueryResponse{Error: strPtr(`relation "missing_table" does not exist`)}, nil
		},
	}
	client := newTestClient(t, fake)

	outcome, err := client.Execute(context.Background(), "", "SELECT * FROM missing_table")
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Equal(t, `relation "missing_table" does not exist`, outcome.RuntimeError)
}

func TestClient_Execute_RejectedSQLPassesMessageThrough(t *testing.T) {
	fake := &fakeRunner{
		runQuery: func(context.Context, *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error) {
			return nil, status.Error(codes.InvalidArgument, `syntax error at or near "SELEC"`)
		},
	}
	client := newTestClient(t, fake)

	_, err := client.Execute(context.Background(), "", "SELEC 1")
	require.Error(t, err)

	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidQuery, appErr.Code)
	assert.Equal(t, `syntax error at or near "SELEC"`, appErr.Details)
}

func TestClient_Execute_RejectionIsDeterministic(t *testing.T) {
	fake := &fakeRunner{
		runQuery: func(context.Context, *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error) {
			return nil, status.Error(codes.InvalidArgument, `syntax error at or near "SELEC"`)
		},
	}
	client := newTestClient(t, fake)

	_, first := client.Execute(context.Background(), "", "SELEC 1")
	_, second := client.Execute(context.Background(), "", "SELEC 1")
	require.Error(t, first)
	require.Error(t, second)
	assert.Equal(t, first.Error(), second.Error())
}

func TestClient_Execute_TransportFailureDoesNotLeak(t *testing.T) {
	fake := &fakeRunner{
		runQuery: func(context.Context, *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error) {
			return nil, status.Error(codes.Unavailable, "connection reset by peer at 10.0.3.17:50051")
		},
	}
	client := newTestClient(t, fake)

	_, err := client.Execute(context.Background(), "", "SELECT 1")
	require.Error(t, err)

	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
	assert.Equal(t, "Unable to run your query.", appErr.Details)
	assert.NotContains(t, appErr.Details, "10.0.3.17")
}

func TestClient_Execute_EmptyResponseIsProtocolViolation(t *testing.T) {
	fake := &fakeRunner{
		runQuery: func(context.Context, *runnerv1.RunQueryRequest) (*runnerv1.RunQueryResponse, error) {
			return &runnerv1.RunQueryResponse{}, nil
		},
	}
	client := newTestClient(t, fake)

	_, err := client.Execute(context.Background(), "", "SELECT 1")
	require.Error(t, err)

	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
	assert.Equal(t, "Unknown response type.", appErr.Details)
}

func TestClient_Rows_AssemblesTableInStreamOrder(t *testing.T) {
	fake := &fakeRunner{
		retrieveQuery: func(req *runnerv1.RetrieveQueryRequest, stream runnerv1.DbRunnerService_RetrieveQueryServer) error {
			assert.Equal(t, "handle-1", req.Id)
			msgs := []*runnerv1.RetrieveQueryResponse{
				{Header: &runnerv1.RowHeader{Cells: []string{"a", "b"}}},
				{Row: &runnerv1.DataRow{Cells: []*runnerv1.Cell{{Value: strPtr("1")}, {Value: strPtr("2")}}}},
				{Row: &runnerv1.DataRow{Cells: []*runnerv1.Cell{{Value: strPtr("3")}, {Value: strPtr("4")}}}},
			}
			for _, m := range msgs {
				if err := stream.Send(m); err != nil {
					return err
				}
			}
			return nil
		},
	}
	client := newTestClient(t, fake)

	table, err := client.Rows(context.Background(), "handle-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []*string{strPtr("1"), strPtr("2")}, table.Rows[0])
	assert.Equal(t, []*string{strPtr("3"), strPtr("4")}, table.Rows[1])
}

func TestClient_Rows_NullCells(t *testing.T) {
	fake := &fakeRunner{
		retrieveQuery: func(_ *runnerv1.RetrieveQueryRequest, stream runnerv1.DbRunnerService_RetrieveQueryServer) error {
			_ = stream.Send(&runnerv1.RetrieveQueryResponse{Header: &runnerv1.RowHeader{Cells: []string{"v"}}})
			return stream.Send(&runnerv1.RetrieveQueryResponse{
				Row: &runnerv1.DataRow{Cells: []*runnerv1.Cell{{Value: nil}}},
			})
		},
	}
	client := newTestClient(t, fake)

	table, err := client.Rows(context.Background(), "handle-1")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Nil(t, table.Rows[0][0])
}

func TestClient_Rows_EmptyResult(t *testing.T) {
	fake := &fakeRunner{
		retrieveQuery: func(_ *runnerv1.RetrieveQueryRequest, stream runnerv1.DbRunnerService_RetrieveQueryServer) error {
			return stream.Send(&runnerv1.RetrieveQueryResponse{Header: &runnerv1.RowHeader{Cells: []string{"a"}}})
		},
	}
	client := newTestClient(t, fake)

	table, err := client.Rows(context.Background(), "handle-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestClient_Rows_RowBeforeHeaderIsProtocolViolation(t *testing.T) {
	fake := &fakeRunner{
		retrieveQuery: func(_ *runnerv1.RetrieveQueryRequest, stream runnerv1.DbRunnerService_RetrieveQueryServer) error {
			return stream.Send(&runnerv1.RetrieveQueryResponse{
				Row: &runnerv1.DataRow{Cells: []*runnerv1.Cell{{Value: strPtr("1")}}},
			})
		},
	}
	client := newTestClient(t, fake)

	_, err := client.Rows(context.Background(), "handle-1")
	require.Error(t, err)

	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
	assert.Equal(t, "Unknown response type.", appErr.Details)
}

func TestClient_Rows_EmptyMessageIsProtocolViolation(t *testing.T) {
	fake := &fakeRunner{
		retrieveQuery: func(_ *runnerv1.RetrieveQueryRequest, stream runnerv1.DbRunnerService_RetrieveQueryServer) error {
			return stream.Send(&runnerv1.RetrieveQueryResponse{})
		},
	}
	client := newTestClient(t, fake)

	_, err := client.Rows(context.Background(), "handle-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.GetCode(err))
}

func TestClient_Rows_MidStreamFailureDiscardsPartialResults(t *testing.T) {
	fake := &fakeRunner{
		retrieveQuery: func(_ *runnerv1.RetrieveQueryRequest, stream runnerv1.DbRunnerService_RetrieveQueryServer) error {
			_ = stream.Send(&runnerv1.RetrieveQueryResponse{Header: &runnerv1.RowHeader{Cells: []string{"a"}}})
			_ = stream.Send(&runnerv1.RetrieveQueryResponse{
				Row: &runnerv1.DataRow{Cells: []*runnerv1.Cell{{Value: strPtr("1")}}},
			})
			return status.Error(codes.Unavailable, "backend restarted")
		},
	}
	client := newTestClient(t, fake)

	table, err := client.Rows(context.Background(), "handle-1")
	require.Error(t, err)
	assert.Nil(t, table, "partial results must not be returned")

	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
	assert.Equal(t, "Unable to retrieve query results.", appErr.Details)
}

func TestClient_AreOutputsSame(t *testing.T) {
	var gotLeft, gotRight string
	same := true
	fake := &fakeRunner{
		outputSame: func(_ context.Context, req *runnerv1.AreQueriesOutputSameRequest) (*runnerv1.AreQueriesOutputSameResponse, error) {
			gotLeft, gotRight = req.LeftId, req.RightId
			return &runnerv1.AreQueriesOutputSameResponse{Same: same}, nil
		},
	}
	client := newTestClient(t, fake)

	got, err := client.AreOutputsSame(context.Background(), "left-1", "right-1")
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, "left-1", gotLeft)
	assert.Equal(t, "right-1", gotRight)

	same = false
	got, err = client.AreOutputsSame(context.Background(), "left-1", "right-2")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestClient_AreOutputsSame_TransportFailure(t *testing.T) {
	fake := &fakeRunner{
		outputSame: func(context.Context, *runnerv1.AreQueriesOutputSameRequest) (*runnerv1.AreQueriesOutputSameResponse, error) {
			return nil, status.Error(codes.Unavailable, "backend down")
		},
	}
	client := newTestClient(t, fake)

	_, err := client.AreOutputsSame(context.Background(), "left-1", "right-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.GetCode(err))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "grpc scheme", addr: "grpc://localhost:50051"},
		{name: "grpcs scheme", addr: "grpcs://dbrunner.example.com:443"},
		{name: "empty", addr: "", wantErr: true},
		{name: "http scheme", addr: "http://localhost:50051", wantErr: true},
		{name: "no host", addr: "grpc://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := dbrunner.Config{Addr: tt.addr}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
