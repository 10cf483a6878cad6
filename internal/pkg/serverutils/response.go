package serverutils

type SuccessResponseBody[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func SuccessResponse[T any](message string, data T) SuccessResponseBody[T] {
	return SuccessResponseBody[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

type ErrorResponseBody struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	Error     string            `json:"error,omitempty"`
	Localized map[string]string `json:"localized,omitempty"`
	Details   any               `json:"details,omitempty"`
}

func ErrorResponse(code int, message string) ErrorResponseBody {
	return ErrorResponseBody{
		Success: false,
		Code:    code,
		Message: message,
	}
}
