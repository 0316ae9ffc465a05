package wrapper

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

type ErrorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// JSONResult is the envelope every endpoint answers with. Exactly one of Data
// and Error is meaningful.
type JSONResult struct {
	Code  int         `json:"-"`
	Data  interface{} `json:"data"`
	Error *ErrorBody  `json:"error"`
}

func ResponseSuccess(httpCode int, data interface{}) JSONResult {
	if data == nil {
		data = struct{}{}
	}
	return JSONResult{
		Code: httpCode,
		Data: data,
	}
}

func ResponseFailed(httpCode int, message string) JSONResult {
	return JSONResult{
		Code:  httpCode,
		Error: &ErrorBody{Status: httpCode, Message: message},
	}
}

// Send writes r to c.
func (r JSONResult) Send(c *fiber.Ctx) error {
	return c.Status(r.Code).JSON(r)
}

type OutcomeKind int

const (
	// KindCompleted carries a payload to be sent as a success envelope.
	KindCompleted OutcomeKind = iota
	// KindAlreadyResponded means the handler wrote the response itself.
	KindAlreadyResponded
	// KindFailed carries a status and message for an error envelope.
	KindFailed
)

// Outcome is what a usecase hands back to its handler.
type Outcome struct {
	Kind    OutcomeKind
	Payload interface{}
	Status  int
	Message string
}

func Completed(payload interface{}) Outcome {
	return Outcome{Kind: KindCompleted, Payload: payload, Status: http.StatusOK}
}

func AlreadyResponded() Outcome {
	return Outcome{Kind: KindAlreadyResponded}
}

func Failed(status int, message string) Outcome {
	return Outcome{Kind: KindFailed, Status: status, Message: message}
}

// Respond turns o into an HTTP response. AlreadyResponded leaves c untouched.
func (o Outcome) Respond(c *fiber.Ctx) error {
	switch o.Kind {
	case KindAlreadyResponded:
		return nil
	case KindFailed:
		return ResponseFailed(o.Status, o.Message).Send(c)
	default:
		return ResponseSuccess(o.Status, o.Payload).Send(c)
	}
}
