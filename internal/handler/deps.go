package handler

import (
	"presenced/internal/app/presence"
	"presenced/internal/configs"
)

type AppDeps struct {
	Hub    *presence.Hub
	Config *configs.AppConfig
}
