package api

import (
	"context"

	"github.com/rpupo63/blogicum/models"
)

type keyType string

const userKey keyType = "user"

// ctxWithUser stores the signed-in user in the context
func ctxWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// ctxGetUser returns the signed-in user, or nil for anonymous requests
func ctxGetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
