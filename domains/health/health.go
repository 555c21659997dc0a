package health

import "context"

type Response struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"activeSessions"`
	Uptime         int64  `json:"uptime"`
}

type IUsecase interface {
	Check(ctx context.Context) Response
}
