package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	sessionCookieName = "cart_session"
	sessionIDKey      = "sid"

	contextSessionID = "cart.session_id"
)

// SessionManager выдаёт идентификатор корзины через подписанную cookie.
// Первый контакт получает свежий UUID, дальше cookie переживает рестарты
// сервиса.
type SessionManager struct {
	store  sessions.Store
	maxAge int
}

// NewSessionManager создаёт менеджер сессий с подписанной cookie.
func NewSessionManager(secret []byte, maxAge int) *SessionManager {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, maxAge: maxAge}
}

// Middleware резолвит session ID из cookie, создавая его при необходимости,
// и кладёт в контекст запроса.
func (m *SessionManager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, err := m.store.Get(c.Request(), sessionCookieName)
			if err != nil {
				// Повреждённая или переподписанная cookie: начинаем новую сессию.
				session, _ = m.store.New(c.Request(), sessionCookieName)
			}

			sessionID, ok := session.Values[sessionIDKey].(string)
			if !ok || sessionID == "" {
				sessionID = uuid.NewString()
				session.Values[sessionIDKey] = sessionID
				if err := session.Save(c.Request(), c.Response()); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to establish session")
				}
			}

			c.Set(contextSessionID, sessionID)
			return next(c)
		}
	}
}

// SessionID возвращает идентификатор сессии текущего запроса.
func SessionID(c echo.Context) string {
	sessionID, _ := c.Get(contextSessionID).(string)
	return sessionID
}
