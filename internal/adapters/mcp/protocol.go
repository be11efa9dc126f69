// Package mcp は検索ユースケースを Model Context Protocol のツールとして公開します。
// JSON-RPC 2.0 を標準入出力 (改行区切り) と HTTP POST の両方で受け付けます。
package mcp

import (
	"encoding/json"
)

const jsonRPCVersion = "2.0"

// JSON-RPC 2.0 のエラーコードです。
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request は JSON-RPC のリクエストまたは通知です。ID が無いものは通知です。
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification は応答不要のメッセージかを返します。
func (r Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response は JSON-RPC のレスポンスです。
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError は JSON-RPC のエラーオブジェクトです。
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Tool はツールの定義です。
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type listToolsResult struct {
	Tools []Tool `json:"tools"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Content はツール結果の 1 要素です。
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult は tools/call の結果です。
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}
