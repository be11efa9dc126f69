package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"slices"

	"go.uber.org/zap"

	"github.com/ogurasousui/hr-datahub/internal/core/query"
)

const (
	// ToolQueryEmployees は公開するツール名です。
	ToolQueryEmployees = "query_employees"
	// LatestProtocolVersion はクライアントが未知の版を要求した場合に返す版です。
	LatestProtocolVersion = "2025-03-26"
)

var supportedProtocolVersions = []string{"2024-11-05", "2025-03-26", "2025-06-18"}

// Server は JSON-RPC メッセージを検索ユースケースへ振り分けます。
type Server struct {
	uc      query.UseCase
	logger  *zap.Logger
	name    string
	version string
}

// NewServer は Server を生成します。
func NewServer(uc query.UseCase, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if version == "" {
		version = "dev"
	}
	return &Server{uc: uc, logger: logger, name: "HR Database Server", version: version}
}

// HandleMessage は 1 メッセージを処理し、応答を返します。通知の場合は nil を返します。
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.encode(errorResponse(json.RawMessage("null"), &RPCError{Code: CodeParseError, Message: "parse error"}))
	}
	resp := s.Handle(ctx, req)
	if resp == nil {
		return nil
	}
	return s.encode(*resp)
}

// Handle はデコード済みのリクエストを処理します。通知の場合は nil を返します。
func (s *Server) Handle(ctx context.Context, req Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("mcp handler panicked",
				zap.String("method", req.Method),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			if req.IsNotification() {
				resp = nil
				return
			}
			out := errorResponse(req.ID, &RPCError{Code: CodeInternalError, Message: "internal error"})
			resp = &out
		}
	}()

	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		resp := errorResponse(req.ID, &RPCError{Code: CodeInvalidRequest, Message: "invalid request"})
		return &resp
	}

	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		if rpcErr != nil {
			s.logger.Debug("notification failed", zap.String("method", req.Method), zap.String("error", rpcErr.Message))
		}
		return nil
	}
	if rpcErr != nil {
		resp := errorResponse(req.ID, rpcErr)
		return &resp
	}
	return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		var params initializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid initialize params"}
			}
		}
		version := LatestProtocolVersion
		if slices.Contains(supportedProtocolVersions, params.ProtocolVersion) {
			version = params.ProtocolVersion
		}
		s.logger.Info("mcp session initialized", zap.String("protocol_version", version))
		return initializeResult{
			ProtocolVersion: version,
			Capabilities:    map[string]any{"tools": map[string]any{"listChanged": false}},
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
		}, nil
	case "notifications/initialized", "notifications/cancelled", "ping":
		return struct{}{}, nil
	case "tools/list":
		return listToolsResult{Tools: []Tool{queryTool()}}, nil
	case "tools/call":
		var params callToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid tools/call params"}
		}
		if params.Name != ToolQueryEmployees {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "unknown tool: " + params.Name}
		}
		return s.callQuery(ctx, params.Arguments)
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

type queryArguments struct {
	Table      string  `json:"table"`
	Limit      *int    `json:"limit"`
	EmployeeID *string `json:"employee_id"`
	Department *string `json:"department"`
}

func (s *Server) callQuery(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	var args queryArguments
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid arguments: " + err.Error()}
		}
	}

	in := query.Input{Table: args.Table}
	if args.Limit != nil {
		in.Limit = *args.Limit
	}
	if args.EmployeeID != nil {
		in.EmployeeID = *args.EmployeeID
	}
	if args.Department != nil {
		in.Department = *args.Department
	}

	text, isError := Execute(ctx, s.uc, in)
	if isError {
		s.logger.Warn("query tool failed", zap.String("table", in.Table), zap.String("payload", text))
	}
	return CallToolResult{Content: []Content{{Type: "text", Text: text}}, IsError: isError}, nil
}

// Execute は検索を実行し、結果またはエラーの JSON 文字列を返します。呼び出し側へエラーを投げることはありません。
func Execute(ctx context.Context, uc query.UseCase, in query.Input) (string, bool) {
	res, err := uc.Query(ctx, in)
	if err != nil {
		return query.EncodeError(err), true
	}
	text, err := query.EncodeRows(res.Rows)
	if err != nil {
		return query.EncodeError(fmt.Errorf("%w: %w", query.ErrQueryFailed, err)), true
	}
	return text, false
}

func queryTool() Tool {
	return Tool{
		Name:        ToolQueryEmployees,
		Description: "Query the HR database. Returns JSON-formatted rows.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"table": map[string]any{
					"type":        "string",
					"description": "Table name (employee_master, remuneration, position_details, performance)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Number of rows to return, default 10",
					"default":     query.DefaultLimit,
					"minimum":     0,
				},
				"employee_id": map[string]any{
					"type":        "string",
					"description": "Employee ID, optional",
				},
				"department": map[string]any{
					"type":        "string",
					"description": "Department, optional",
				},
			},
			"required": []string{"table"},
		},
	}
}

func errorResponse(id json.RawMessage, err *RPCError) Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return Response{JSONRPC: jsonRPCVersion, ID: id, Error: err}
}

func (s *Server) encode(resp Response) []byte {
	b, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
		fallback, _ := json.Marshal(errorResponse(resp.ID, &RPCError{Code: CodeInternalError, Message: "internal error"}))
		return fallback
	}
	return b
}
