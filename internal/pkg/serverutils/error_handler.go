package serverutils

import (
	"errors"

	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Detailer is implemented by errors that carry structured detail for the client.
type Detailer interface {
	Details() any
}

// ErrorHandler renders every error returned by a handler as an ErrorResponseBody.
// The status comes from the apperror kind, a *fiber.Error code, or 500.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		lang := apperror.NegotiateLanguage(ctx.Get(fiber.HeaderAcceptLanguage))
		body := buildErrorBody(err, lang)

		if body.Code >= fiber.StatusInternalServerError && log != nil {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": body.Code,
				"error":  err.Error(),
			})
		}

		return ctx.Status(body.Code).JSON(body)
	}
}

func buildErrorBody(err error, lang string) ErrorResponseBody {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		body := ErrorResponse(fiberErr.Code, fiberErr.Message)
		body.Error = string(apperror.FromHTTPStatus(fiberErr.Code))
		return body
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && apperror.KindOf(err) == apperror.KindInternal {
		err = ValidateRequestError(validationErrs)
	}

	kind := apperror.KindOf(err)
	code := apperror.HTTPStatus(kind)

	message := apperror.MessageOf(err)
	if kind == apperror.KindInternal {
		message = apperror.LocalizeKind(kind, lang)
	}

	body := ErrorResponse(code, message)
	body.Error = string(kind)
	body.Localized = apperror.Trilingual(err)

	var detailer Detailer
	if errors.As(err, &detailer) {
		body.Details = detailer.Details()
	}
	return body
}

// ValidateRequestError converts raw validator output into a Validation error.
func ValidateRequestError(errs validator.ValidationErrors) error {
	return apperror.Wrap(apperror.KindValidation, errs.Error(), errs)
}
