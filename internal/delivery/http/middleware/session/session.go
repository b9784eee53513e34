package http_session_middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/humanbelnik/musicroom/internal/config"
	http_common "github.com/humanbelnik/musicroom/internal/delivery/http/common"
	"github.com/rs/zerolog/log"
)

const (
	cookieName = "musicroom"
	idKey      = "session_id"
	contextKey = "session_id"
)

// Sessions installs the signed cookie store.
func Sessions(cfg config.Session) gin.HandlerFunc {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(cookieName, store)
}

// Identity gives every client a stable session id, creating one on first visit.
func Identity() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		session := sessions.Default(ctx)

		id, _ := session.Get(idKey).(string)
		if id == "" {
			id = uuid.NewString()
			session.Set(idKey, id)
			if err := session.Save(); err != nil {
				log.Error().Err(err).Msg("failed to save session")
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, http_common.ErrorResponse{
					Message: "internal error",
				})
				return
			}
		}

		ctx.Set(contextKey, id)
		ctx.Next()
	}
}

func SessionID(ctx *gin.Context) string {
	return ctx.GetString(contextKey)
}

// Value and SetValue keep short-lived values such as the OAuth state next to the id.
func Value(ctx *gin.Context, key string) string {
	v, _ := sessions.Default(ctx).Get(key).(string)
	return v
}

func SetValue(ctx *gin.Context, key string, value string) error {
	session := sessions.Default(ctx)
	if value == "" {
		session.Delete(key)
	} else {
		session.Set(key, value)
	}
	return session.Save()
}
