package middleware

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware stamps every request with a request id for tracing
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)
	c.Next()
}

// TenantMiddleware reads the explicit tenant header into the request context.
// Core operations only ever take their tenant scope from the context; there
// is no ambient "current academy" anywhere.
func TenantMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	if tenantID := c.GetHeader(types.HeaderTenantID); tenantID != "" {
		ctx = types.SetTenantID(ctx, tenantID)
	}
	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx = types.SetUserID(ctx, userID)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
