package middleware

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/interactome/pkg/leaselock"
	"github.com/OFFIS-RIT/interactome/pkg/query"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

// Publisher enqueues messages for the load worker.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type App struct {
	Engine *query.Engine
	Runs   store.LoadRunStorage
	Locker leaselock.Locker
	Queue  Publisher

	// Keyfunc verifies bearer JWTs. Without one only the master key is
	// accepted.
	Keyfunc        jwt.Keyfunc
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
