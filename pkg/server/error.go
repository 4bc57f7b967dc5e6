// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package server

import (
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AGI/voyant/pkg/core"
	"github.com/AMD-AGI/voyant/pkg/errors"
)

// ApiError is the wire shape for every failed request.
type ApiError struct {
	HttpCode int               `json:"-"`
	Kind     string            `json:"kind"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
}

func (e *ApiError) Error() string {
	return e.Message
}

// AbortWithApiError converts err into the standard error response and
// aborts the request. Messages are masked before leaving the process.
func AbortWithApiError(c *gin.Context, err error) {
	_ = c.Error(err)
	rsp := convertToErrResponse(err)
	c.AbortWithStatusJSON(rsp.HttpCode, rsp)
}

func convertToErrResponse(err error) *ApiError {
	var api *ApiError
	if goerrors.As(err, &api) {
		return api
	}
	code := errors.CodeOf(err)
	if code == "" {
		code = errors.CodeInternalError
	}
	kind := core.KindOf(code)
	rsp := &ApiError{
		HttpCode: httpStatusFor(kind),
		Kind:     kind,
		Code:     code,
		Message:  errors.MaskSensitive(messageOf(err)),
	}
	var coded *errors.Error
	if goerrors.As(err, &coded) {
		rsp.Details = coded.Details
	}
	return rsp
}

func messageOf(err error) string {
	var coded *errors.Error
	if goerrors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return err.Error()
}

func httpStatusFor(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "unauthorized":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "conflict", "cancelled":
		return http.StatusConflict
	case "quota_exceeded":
		return http.StatusTooManyRequests
	case "circuit_open", "transient_external":
		return http.StatusServiceUnavailable
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
