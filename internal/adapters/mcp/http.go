package mcp

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionHeader は initialize 応答で払い出すセッション ID のヘッダー名です。
const SessionHeader = "Mcp-Session-Id"

// HTTPHandler は MCP の Streamable HTTP トランスポートを fiber で提供します。
type HTTPHandler struct {
	server *Server
}

// NewHTTPHandler は HTTPHandler を生成します。
func NewHTTPHandler(server *Server) *HTTPHandler {
	return &HTTPHandler{server: server}
}

// Register は path に POST と GET のハンドラを登録します。
func (h *HTTPHandler) Register(router fiber.Router, path string) {
	router.Post(path, h.Post)
	router.Get(path, h.Get)
}

// Post は 1 件の JSON-RPC メッセージを処理します。通知は 202 を返します。
func (h *HTTPHandler) Post(c *fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return h.write(c, fiber.StatusBadRequest, h.server.encode(errorResponse(nil, &RPCError{Code: CodeParseError, Message: "empty body"})))
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return h.write(c, fiber.StatusBadRequest, h.server.encode(errorResponse(nil, &RPCError{Code: CodeParseError, Message: "parse error"})))
	}

	resp := h.server.Handle(c.UserContext(), req)
	if resp == nil {
		return c.SendStatus(fiber.StatusAccepted)
	}
	if req.Method == "initialize" && resp.Error == nil {
		c.Set(SessionHeader, uuid.NewString())
	}
	return h.write(c, fiber.StatusOK, h.server.encode(*resp))
}

// Get はサーバー起点のストリームを提供しないため 405 を返します。
func (h *HTTPHandler) Get(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, fiber.MethodPost)
	return c.SendStatus(fiber.StatusMethodNotAllowed)
}

func (h *HTTPHandler) write(c *fiber.Ctx, status int, payload []byte) error {
	if wantsEventStream(c.Get(fiber.HeaderAccept)) {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		var buf bytes.Buffer
		buf.WriteString("event: message\ndata: ")
		buf.Write(payload)
		buf.WriteString("\n\n")
		return c.Status(status).Send(buf.Bytes())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(payload)
}

// wantsEventStream はクライアントが SSE のみを受け付ける場合に真を返します。
func wantsEventStream(accept string) bool {
	if accept == "" {
		return false
	}
	sse, jsonOK := false, false
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		switch strings.ToLower(strings.TrimSpace(mediaType)) {
		case "text/event-stream":
			sse = true
		case "application/json", "application/*", "*/*":
			jsonOK = true
		}
	}
	return sse && !jsonOK
}
