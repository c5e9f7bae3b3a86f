package models

import "net/http"

// ErrorKind - машиночитаемый вид ошибки.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindForbidden       ErrorKind = "FORBIDDEN"
	KindBadRequest      ErrorKind = "BAD_REQUEST"
	KindValidationError ErrorKind = "VALIDATION_ERROR"
	KindConflict        ErrorKind = "CONFLICT"
	KindUnauthorized    ErrorKind = "UNAUTHORIZED"
	KindInternal        ErrorKind = "INTERNAL"
)

// ErrorResponse описывает ошибку с кодом, видом и сообщением.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"reason"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением. Вид ошибки выводится из кода.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       KindForStatus(statusCode),
		Message:    message}
}

// NotFound - сущность с указанным идентификатором не существует.
func NotFound(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusNotFound, message)
}

// Forbidden - пользователь не участник сделки или действует не от своей стороны.
func Forbidden(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusForbidden, message)
}

// BadRequest - нарушено предусловие на состояние сущности.
func BadRequest(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, message)
}

// ValidationError - запрос некорректен по форме.
func ValidationError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusUnprocessableEntity, message)
}

// Conflict - гонка при создании уникальной записи.
func Conflict(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusConflict, message)
}

// KindForStatus возвращает вид ошибки для HTTP-кода.
func KindForStatus(statusCode int) ErrorKind {
	switch statusCode {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnprocessableEntity:
		return KindValidationError
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnauthorized:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}
