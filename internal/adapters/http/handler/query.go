// Package handler は REST API のハンドラーを提供します。
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ogurasousui/hr-datahub/internal/core/query"
	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// QueryRequest は /query のリクエストです。GET ではクエリ文字列、POST では JSON 本文から読み取ります。
type QueryRequest struct {
	Table      string `json:"table" query:"table" validate:"max=128"`
	Limit      int    `json:"limit" query:"limit" validate:"gte=0"`
	EmployeeID string `json:"employee_id" query:"employee_id" validate:"max=64"`
	Department string `json:"department" query:"department" validate:"max=128"`
}

// QueryHandler は検索ユースケースを REST で公開します。
type QueryHandler struct {
	uc       query.UseCase
	validate *validator.Validate
}

// NewQueryHandler は QueryHandler を生成します。
func NewQueryHandler(uc query.UseCase) *QueryHandler {
	return &QueryHandler{uc: uc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Query は GET/POST /query を処理します。
func (h *QueryHandler) Query(c *fiber.Ctx) error {
	var req QueryRequest
	var err error
	if c.Method() == fiber.MethodGet {
		err = c.QueryParser(&req)
	} else if len(c.Body()) > 0 {
		err = c.BodyParser(&req)
	}
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid payload")
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, http.StatusBadRequest, validationMessage(err))
	}

	if strings.TrimSpace(req.Table) == "" {
		req.Table = schema.TableEmployeeMaster.String()
	}

	res, err := h.uc.Query(c.UserContext(), query.Input{
		Table:      req.Table,
		Limit:      req.Limit,
		EmployeeID: req.EmployeeID,
		Department: req.Department,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if query.IsInvalidInput(err) {
			status = http.StatusBadRequest
		}
		return writeError(c, status, query.Message(err))
	}

	return c.JSON(res.Rows)
}

func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(query.ErrorPayload{Error: message})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(messages, "; ")
}
