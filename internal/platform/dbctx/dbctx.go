package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context and, inside a transaction, the tx handle.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// DB returns Tx when set, otherwise fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	conn := c.Tx
	if conn == nil {
		conn = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return conn.WithContext(ctx)
}
