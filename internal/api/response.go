package api

// BaseResponse is the `{code, msg}` status envelope used by the knowledge
// base endpoints.
type BaseResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ListResponse carries document names or knowledge base ids.
type ListResponse struct {
	BaseResponse
	Data []string `json:"data"`
}

func success(msg string) BaseResponse {
	if msg == "" {
		msg = "success"
	}
	return BaseResponse{Code: 200, Msg: msg}
}

// notFound is the original service's soft failure shape: HTTP 200 with a
// non-zero code.
func notFound(msg string) BaseResponse {
	return BaseResponse{Code: 1, Msg: msg}
}
