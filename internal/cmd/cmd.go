package cmd

import (
	"context"

	"github.com/Malowking/ragchat/core/config"
	"github.com/Malowking/ragchat/internal/controller/ragchat"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/os/gcmd"
)

var (
	Main = gcmd.Command{
		Name:  "main",
		Usage: "main",
		Brief: "start http server",
		Func: func(ctx context.Context, parser *gcmd.Parser) (err error) {
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			app, err := initApp(ctx, cfg)
			if err != nil {
				g.Log().Fatalf(ctx, "Initialization failed: %v", err)
				return err
			}
			defer app.Close(ctx)

			s := g.Server()
			s.Group("/api", func(group *ghttp.RouterGroup) {
				group.Middleware(MiddlewareCORS(cfg.CORSOrigins), MiddlewareMultipartMaxMemory, MiddlewareHandlerResponse)
				group.Bind(
					ragchat.NewV1(app.chat, app.documents, app.sessions),
				)
			})
			s.Run()
			return nil
		},
	}
)
