package handler

// Response is the standard success envelope. Errors render through the
// error middleware instead.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{Success: true, Data: data}
}

func NewMessageResponse(message string) *Response {
	return &Response{Success: true, Message: message}
}
