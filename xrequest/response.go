package xrequest

import (
	"context"
	"errors"

	"gomod.pri/spellkit/xerror"
	"gomod.pri/spellkit/xtrace"
)

const (
	RespCodeOK  = 200
	RespCodeMsg = "success"
)

// Response is the envelope printed for every command result.
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ErrMsg  string `json:"err_msg,omitempty"`
	TraceId string `json:"trace_id,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func NewErrRespWithCtx(ctx context.Context, err error) *Response[any] {
	var ce *xerror.Error
	if !errors.As(err, &ce) {
		ce = xerror.New(xerror.CodeInternalError, err)
	}

	resp := &Response[any]{
		Code:    ce.Code(),
		Message: ce.Message(),
		TraceId: xtrace.TraceID(ctx),
	}
	if ce.Cause() != nil {
		resp.ErrMsg = ce.Cause().Error()
	}
	return resp
}

func NewDataRespWithCtx(ctx context.Context, data any) *Response[any] {
	return &Response[any]{
		Code:    RespCodeOK,
		Message: RespCodeMsg,
		TraceId: xtrace.TraceID(ctx),
		Data:    data,
	}
}

func NewNoneResp() *Response[any] {
	return &Response[any]{
		Code:    RespCodeOK,
		Message: RespCodeMsg,
	}
}
