package common

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/gogf/gf/v2/frame/g"
)

// RecoverToError 在 defer 中调用，把 panic 转换为 errp 指向的错误
//
//	func run() (err error) {
//	    defer common.RecoverToError(ctx, "ingest", &err)
//	    ...
//	}
func RecoverToError(ctx context.Context, taskName string, errp *error) {
	if r := recover(); r != nil {
		logPanic(ctx, taskName, r)
		if errp != nil {
			*errp = fmt.Errorf("panic in task %s: %v", taskName, r)
		}
	}
}

func logPanic(ctx context.Context, taskName string, r any) {
	g.Log().Criticalf(ctx,
		"[PANIC RECOVERED] Task: %s\nError: %v\nStack Trace:\n%s",
		taskName, r, string(debug.Stack()))
}
