package commons

// Response is the envelope for every HTTP reply. Page is set on list
// endpoints so callers can request the next slice.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Page    *Page    `json:"page,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func PagedResponse[T any](message string, data T, page Page) Response[T] {
	resp := SuccessResponse(message, data)
	resp.Page = &page
	return resp
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}
